// Package region provides address-range descriptors and byte windows over
// stack memory.
//
// A Region is the half-open address range [low, high) reserved for a stack,
// where low is the deepest address the stack pointer can legally reach and
// high sits just past the initial stack pointer. Bounds come from the build
// configuration (linker symbols, platform startup) and are trusted, never
// verified: a wrong or overlapping range is a silent configuration error.
//
// A Window exposes a region as a stackgauge.Memory with offset 0 at the
// deep (low-address) end. Raw windows do unchecked pointer access inside
// their bounds and are the only place in the library that performs pointer
// arithmetic. FromSlice builds a window over an ordinary byte slice for
// tests and simulation.
package region

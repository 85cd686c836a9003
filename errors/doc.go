// Package errors provides structured error types for the stackgauge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Core paint and scan operations over raw fixed windows never
// fail; errors arise only at the edges, when binding a probe to a region
// whose bounds cannot be resolved or when an interface-backed window rejects
// an access.
//
// Use the convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseScan, off, 1, size)
//	err := errors.Misconfigured(errors.PhaseAttach, "low %#x >= high %#x", low, high)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

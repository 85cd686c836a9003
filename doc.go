// Package stackgauge estimates unused stack space by stack painting.
//
// Before a stack region is first used, every byte of it is overwritten with
// a sentinel Pattern. Later, at any point during execution, the region is
// scanned from its deep (low-address) end: the length of the unbroken run of
// sentinel bytes still in place approximates how much of the stack has never
// been touched since boot, the inverse of the stack's high-water mark.
// On targets with a fixed, small stack and no memory protection this is the
// cheapest way to learn how close a program comes to overflow.
//
// # Architecture Overview
//
// The library is organized into small packages with distinct responsibilities:
//
//	stackgauge/          Root package with the Memory window and Sampler interfaces
//	├── gauge/           Core paint and contiguous-prefix scan over a Memory window
//	├── region/          Address-range descriptors and raw/slice-backed windows
//	├── native/          On-target bounds, pre-entry paint hook, raw nosplit scan
//	├── guest/           Probe for WebAssembly guest shadow stacks (wazero)
//	├── monitor/         Periodic sampling, high-water-mark tracking, zap logging
//	├── errors/          Structured error types
//	└── cmd/stackgauge/  CLI: run a guest with a painted shadow stack and report
//
// # Quick Start
//
// Paint a region and read the estimate:
//
//	buf := make([]byte, 4096)
//	g := gauge.New(region.FromSlice(buf))
//
//	g.Paint()                // once, before the region is used
//	// ... region is used as a stack ...
//	n, _ := g.Unused()       // bytes never touched since Paint
//
// Attach to a wazero guest's shadow stack:
//
//	probe, err := guest.Attach(mod, guest.WithStackSize(64*1024))
//	probe.Paint()            // before the guest entry point runs
//	// ... run the guest ...
//	n, err := probe.Unused()
//
// # Accuracy
//
// The result is an estimate, not an exact measure. The scan stops at the
// first non-sentinel byte, so a sentinel byte that occurs coincidentally in
// live stack data causes an undercount of usage (overcount of unused space)
// bounded by the run length of the coincidence. Painting after the stack is
// already in use corrupts live frames; both orderings are documented
// preconditions, not runtime-checked errors.
//
// # Concurrency
//
// Paint requires exclusive access and is meant to run before any other code
// touches the region (pre-entry, interrupts disabled). Unused is read-only
// and safe to call at any depth, from interrupt context, or concurrently
// with stack mutation: a write racing the scan only shifts the estimate
// within its documented tolerance.
package stackgauge

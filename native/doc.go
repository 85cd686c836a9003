// Package native paints and scans the hardware stack of the running
// program on bare-metal targets.
//
// The region bounds live in two package variables that the platform
// startup must populate before Init runs, either by calling SetBounds or
// by linking its own linker-symbol-derived values onto them:
//
//	//go:linkname stackLow github.com/embtrace/stackgauge/native.stackLow
//	var stackLow uintptr = _stack_bottom
//
// Init is the pre-entry hook body: the platform's startup sequence must
// invoke it exactly once, before the entry point runs, before interrupts
// are enabled, and before any stack frame besides the hook's own exists.
// The paint and scan paths are nosplit and make no interface calls, so
// they do not themselves disturb the region they measure beyond the few
// bytes of their own frame.
//
// On hosted Go these functions compile but painting the goroutine stack
// the runtime is actively using is not meaningful; use gauge over a
// region window instead.
package native

package native

import (
	"unsafe"

	stackgauge "github.com/embtrace/stackgauge"
)

// Stack region bounds, [stackLow, stackHigh). Populated by the platform
// startup before Init runs, via SetBounds or go:linkname. Never mutated
// afterwards.
var (
	stackLow  uintptr
	stackHigh uintptr
)

// paintSlack keeps a gap below the live stack pointer when painting late,
// covering the painter's own frame and any spill area below SP.
const paintSlack = 64

// SetBounds records the stack region bounds. Must happen before Init.
func SetBounds(low, high uintptr) {
	stackLow = low
	stackHigh = high
}

// Bounds returns the configured stack region bounds.
func Bounds() (low, high uintptr) {
	return stackLow, stackHigh
}

// Size returns the configured region size in bytes.
func Size() uintptr {
	if stackHigh < stackLow {
		return 0
	}
	return stackHigh - stackLow
}

// currentSP approximates the live stack pointer with the address of a
// frame-local byte. Good enough for a paint margin; not an exact SP.
//
//go:nosplit
func currentSP() uintptr {
	var probe byte
	return uintptr(unsafe.Pointer(&probe))
}

// Init is the pre-entry hook: it overwrites the whole stack region with
// the sentinel pattern. The platform startup must call it exactly once,
// before the entry point and before any other code pushes a frame inside
// the region. Calling it later destroys the live stack.
//
//go:nosplit
func Init() {
	paintRange(stackLow, stackHigh)
}

// PaintFree paints only the part of the region below the current stack
// pointer, minus a safety slack. Unlike Init it may run after the stack
// is in use: already-used bytes above the paint limit are left alone and
// count as touched forever. The estimate then tracks the high-water mark
// since PaintFree rather than since boot.
//
//go:nosplit
func PaintFree() {
	sp := currentSP()
	if sp < stackLow+paintSlack {
		return
	}
	limit := sp - paintSlack
	if limit > stackHigh {
		limit = stackHigh
	}
	paintRange(stackLow, limit)
}

//go:nosplit
func paintRange(low, high uintptr) {
	for p := low; p < high; p++ {
		*(*byte)(unsafe.Pointer(p)) = stackgauge.Pattern
	}
}

// Unused walks the region from the deep end and counts contiguous
// sentinel bytes, stopping at the first mismatch. Read-only, safe at any
// call depth and from interrupt context. The result is meaningless if
// neither Init nor PaintFree has run.
//
//go:nosplit
func Unused() uint {
	var n uint
	for p := stackLow; p < stackHigh; p++ {
		if *(*byte)(unsafe.Pointer(p)) != stackgauge.Pattern {
			break
		}
		n++
	}
	return n
}

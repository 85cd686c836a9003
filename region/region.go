package region

import (
	"math"

	"github.com/embtrace/stackgauge/errors"
)

// Region describes the half-open address range [low, high) reserved for a
// stack. Bounds are fixed for the lifetime of the process.
type Region struct {
	low  uintptr
	high uintptr
}

// New builds a region from its bounds. low == high is the degenerate empty
// region; low > high is a configuration error.
func New(low, high uintptr) (Region, error) {
	if low > high {
		return Region{}, errors.Misconfigured(errors.PhaseAttach, "low %#x above high %#x", low, high)
	}
	if uint64(high-low) > math.MaxUint32 {
		return Region{}, errors.Misconfigured(errors.PhaseAttach, "region size %d exceeds window limit", high-low)
	}
	return Region{low: low, high: high}, nil
}

// Low returns the deepest address the stack may reach.
func (r Region) Low() uintptr { return r.low }

// High returns the address just past the initial stack pointer.
func (r Region) High() uintptr { return r.high }

// Size returns the region length in bytes.
func (r Region) Size() uint32 { return uint32(r.high - r.low) }

// Window returns a raw window over the region. Offset 0 is Low.
func (r Region) Window() *Window {
	return NewWindow(r.low, r.Size())
}

package gauge

import (
	stackgauge "github.com/embtrace/stackgauge"
)

// Window combines byte access with a fixed size. region.Window,
// region.SliceWindow and the guest memory adapter all satisfy it.
type Window interface {
	stackgauge.Memory
	stackgauge.MemorySizer
}

// chunkSize bounds the per-call transfer during paint and scan so that
// interface-backed windows are not asked for one huge view.
const chunkSize = 512

// Gauge binds a stack region window to a sentinel byte.
type Gauge struct {
	mem     Window
	pattern byte
}

// New builds a gauge over w using the default stackgauge.Pattern sentinel.
func New(w Window) *Gauge {
	return NewWithPattern(w, stackgauge.Pattern)
}

// NewWithPattern builds a gauge with an explicit sentinel byte.
func NewWithPattern(w Window, pattern byte) *Gauge {
	return &Gauge{mem: w, pattern: pattern}
}

// Pattern returns the sentinel byte in use.
func (g *Gauge) Pattern() byte { return g.pattern }

// Size returns the region size in bytes.
func (g *Gauge) Size() uint32 { return g.mem.Size() }

// Paint overwrites every byte of the window with the sentinel. It must run
// exactly once, before anything else uses the region as a stack; painting a
// live stack destroys it.
func (g *Gauge) Paint() error {
	size := g.mem.Size()
	if size == 0 {
		return nil
	}

	n := min(size, chunkSize)
	fill := make([]byte, n)
	for i := range fill {
		fill[i] = g.pattern
	}

	for off := uint32(0); off < size; {
		c := min(n, size-off)
		if err := g.mem.Write(off, fill[:c]); err != nil {
			return err
		}
		off += c
	}
	return nil
}

// Unused counts contiguous sentinel bytes from the deep end of the region
// and stops at the first mismatch. The result is in [0, Size] and is an
// estimate: a sentinel byte occurring naturally in live stack data ends the
// scan early and undercounts usage. Unused performs no writes and may be
// called at any time after Paint, from any call depth, repeatedly.
func (g *Gauge) Unused() (uint32, error) {
	size := g.mem.Size()

	var count uint32
	for off := uint32(0); off < size; {
		c := min(uint32(chunkSize), size-off)
		b, err := g.mem.Read(off, c)
		if err != nil {
			return 0, err
		}
		for _, v := range b {
			if v != g.pattern {
				return count, nil
			}
			count++
		}
		off += c
	}
	return count, nil
}

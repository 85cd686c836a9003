package guest

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/embtrace/stackgauge/errors"
	"github.com/embtrace/stackgauge/gauge"
)

// DefaultStackPointerGlobal is the name wasm-ld gives the shadow stack
// pointer global when it is exported.
const DefaultStackPointerGlobal = "__stack_pointer"

type config struct {
	low, high  uint32
	hasBounds  bool
	stackSize  uint32
	spGlobal   string
	pattern    byte
	hasPattern bool
}

// Option configures Attach.
type Option func(*config)

// WithBounds supplies the shadow stack range [low, high) in linear memory
// explicitly, bypassing global lookup.
func WithBounds(low, high uint32) Option {
	return func(c *config) {
		c.low, c.high = low, high
		c.hasBounds = true
	}
}

// WithStackSize sets the shadow stack size. The deep bound becomes the
// initial __stack_pointer value minus size. Matches the -z stack-size
// value the guest was linked with.
func WithStackSize(n uint32) Option {
	return func(c *config) { c.stackSize = n }
}

// WithStackPointerGlobal overrides the exported global consulted for the
// initial stack pointer.
func WithStackPointerGlobal(name string) Option {
	return func(c *config) { c.spGlobal = name }
}

// WithPattern overrides the sentinel byte.
func WithPattern(b byte) Option {
	return func(c *config) {
		c.pattern = b
		c.hasPattern = true
	}
}

// Probe is a stack gauge bound to a guest's shadow stack.
type Probe struct {
	gauge *gauge.Gauge
	low   uint32
	high  uint32
}

// module is the slice of api.Module that Attach needs.
type module interface {
	Memory() api.Memory
	ExportedGlobal(name string) api.Global
}

// Attach resolves the guest's shadow stack bounds and binds a gauge to
// them. Bounds come from WithBounds, or from the exported stack pointer
// global combined with WithStackSize. Attach performs no writes; call
// Paint before the guest entry point runs.
func Attach(mod api.Module, opts ...Option) (*Probe, error) {
	return attach(mod, opts...)
}

func attach(mod module, opts ...Option) (*Probe, error) {
	cfg := config{spGlobal: DefaultStackPointerGlobal}
	for _, opt := range opts {
		opt(&cfg)
	}

	mem := mod.Memory()
	if mem == nil {
		return nil, errors.Misconfigured(errors.PhaseAttach, "module has no linear memory")
	}

	low, high := cfg.low, cfg.high
	if !cfg.hasBounds {
		g := mod.ExportedGlobal(cfg.spGlobal)
		if g == nil {
			return nil, errors.NotFound(errors.PhaseAttach, "exported global", cfg.spGlobal)
		}
		if g.Type() != api.ValueTypeI32 {
			return nil, errors.InvalidInput(errors.PhaseAttach, "stack pointer global is not i32")
		}
		high = api.DecodeU32(g.Get())

		if cfg.stackSize == 0 {
			return nil, errors.Misconfigured(errors.PhaseAttach,
				"stack size required to locate the deep bound below %s=%#x", cfg.spGlobal, high)
		}
		if cfg.stackSize > high {
			return nil, errors.Misconfigured(errors.PhaseAttach,
				"stack size %d exceeds stack pointer %#x", cfg.stackSize, high)
		}
		low = high - cfg.stackSize
	}

	if low > high {
		return nil, errors.Misconfigured(errors.PhaseAttach, "low %#x above high %#x", low, high)
	}
	if high > mem.Size() {
		return nil, errors.Misconfigured(errors.PhaseAttach,
			"region end %#x beyond linear memory size %#x", high, mem.Size())
	}

	w := &window{mem: mem, base: low, size: high - low}
	g := gauge.New(w)
	if cfg.hasPattern {
		g = gauge.NewWithPattern(w, cfg.pattern)
	}

	return &Probe{gauge: g, low: low, high: high}, nil
}

// Paint fills the shadow stack region with the sentinel. Must run before
// the guest entry point; painting a running guest's stack corrupts it.
func (p *Probe) Paint() error {
	return p.gauge.Paint()
}

// Unused returns the contiguous sentinel count from the deep end of the
// shadow stack. Safe to call while the guest runs; the estimate tolerates
// concurrent stack writes.
func (p *Probe) Unused() (uint32, error) {
	return p.gauge.Unused()
}

// Size returns the shadow stack region size in bytes.
func (p *Probe) Size() uint32 { return p.high - p.low }

// Bounds returns the shadow stack range in linear memory.
func (p *Probe) Bounds() (low, high uint32) { return p.low, p.high }

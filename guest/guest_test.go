package guest

import (
	stderrors "errors"
	"testing"

	"github.com/tetratelabs/wazero/api"

	stackgauge "github.com/embtrace/stackgauge"
	sgerrors "github.com/embtrace/stackgauge/errors"
)

// fakeMemory implements the api.Memory methods the probe touches over a
// byte slice. The embedded interface covers the rest; calling an
// unimplemented method panics, which is what we want in a test.
type fakeMemory struct {
	api.Memory
	buf []byte
}

func (m *fakeMemory) Size() uint32 { return uint32(len(m.buf)) }

func (m *fakeMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	if uint64(offset)+uint64(byteCount) > uint64(len(m.buf)) {
		return nil, false
	}
	return m.buf[offset : offset+byteCount], true
}

func (m *fakeMemory) Write(offset uint32, v []byte) bool {
	if uint64(offset)+uint64(len(v)) > uint64(len(m.buf)) {
		return false
	}
	copy(m.buf[offset:], v)
	return true
}

func (m *fakeMemory) ReadByte(offset uint32) (byte, bool) {
	if offset >= uint32(len(m.buf)) {
		return 0, false
	}
	return m.buf[offset], true
}

func (m *fakeMemory) WriteByte(offset uint32, v byte) bool {
	if offset >= uint32(len(m.buf)) {
		return false
	}
	m.buf[offset] = v
	return true
}

type fakeGlobal struct {
	api.Global
	value uint64
	typ   api.ValueType
}

func (g *fakeGlobal) Type() api.ValueType { return g.typ }
func (g *fakeGlobal) Get() uint64         { return g.value }

type fakeModule struct {
	mem     api.Memory
	globals map[string]api.Global
}

func (m *fakeModule) Memory() api.Memory { return m.mem }

func (m *fakeModule) ExportedGlobal(name string) api.Global {
	g, ok := m.globals[name]
	if !ok {
		return nil
	}
	return g
}

func newFakeModule(memSize int, sp uint32) (*fakeModule, *fakeMemory) {
	mem := &fakeMemory{buf: make([]byte, memSize)}
	return &fakeModule{
		mem: mem,
		globals: map[string]api.Global{
			DefaultStackPointerGlobal: &fakeGlobal{value: uint64(sp), typ: api.ValueTypeI32},
		},
	}, mem
}

func TestAttachWithStackSize(t *testing.T) {
	mod, _ := newFakeModule(1<<16, 0x8000)

	p, err := attach(mod, WithStackSize(0x4000))
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	low, high := p.Bounds()
	if low != 0x4000 || high != 0x8000 {
		t.Fatalf("unexpected bounds: %#x %#x", low, high)
	}
	if p.Size() != 0x4000 {
		t.Fatalf("unexpected size: %#x", p.Size())
	}
}

func TestAttachExplicitBounds(t *testing.T) {
	mod, mem := newFakeModule(1<<16, 0)

	p, err := attach(mod, WithBounds(0x100, 0x300))
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := p.Paint(); err != nil {
		t.Fatalf("Paint failed: %v", err)
	}

	// Only [0x100, 0x300) is painted.
	if mem.buf[0x0FF] != 0 || mem.buf[0x300] != 0 {
		t.Fatal("paint leaked outside the region")
	}
	for i := 0x100; i < 0x300; i++ {
		if mem.buf[i] != stackgauge.Pattern {
			t.Fatalf("byte %#x not painted", i)
		}
	}
}

func TestPaintThenScan(t *testing.T) {
	mod, mem := newFakeModule(1<<16, 0x8000)

	p, err := attach(mod, WithStackSize(0x1000))
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := p.Paint(); err != nil {
		t.Fatalf("Paint failed: %v", err)
	}

	n, err := p.Unused()
	if err != nil {
		t.Fatalf("Unused failed: %v", err)
	}
	if n != 0x1000 {
		t.Fatalf("expected full region, got %#x", n)
	}

	// Shadow stack grows down from 0x8000; simulate 0x200 bytes of use.
	for addr := 0x8000 - 0x200; addr < 0x8000; addr++ {
		mem.buf[addr] = 0x01
	}
	n, err = p.Unused()
	if err != nil {
		t.Fatalf("Unused failed: %v", err)
	}
	if n != 0x1000-0x200 {
		t.Fatalf("expected %#x, got %#x", 0x1000-0x200, n)
	}
}

func TestAttachCustomPattern(t *testing.T) {
	mod, mem := newFakeModule(1<<16, 0x8000)

	p, err := attach(mod, WithStackSize(256), WithPattern(0xC5))
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := p.Paint(); err != nil {
		t.Fatalf("Paint failed: %v", err)
	}
	if mem.buf[0x8000-1] != 0xC5 {
		t.Fatal("custom pattern not written")
	}

	for addr := 0x8000 - 40; addr < 0x8000; addr++ {
		mem.buf[addr] = 0x12
	}
	n, err := p.Unused()
	if err != nil {
		t.Fatalf("Unused failed: %v", err)
	}
	if n != 216 {
		t.Fatalf("expected 216, got %d", n)
	}
}

func TestAttachErrors(t *testing.T) {
	misconfigured := &sgerrors.Error{Phase: sgerrors.PhaseAttach, Kind: sgerrors.KindMisconfigured}

	t.Run("no memory", func(t *testing.T) {
		_, err := attach(&fakeModule{})
		if !stderrors.Is(err, misconfigured) {
			t.Fatalf("expected misconfigured, got %v", err)
		}
	})

	t.Run("missing global", func(t *testing.T) {
		mod := &fakeModule{mem: &fakeMemory{buf: make([]byte, 64)}}
		_, err := attach(mod, WithStackSize(16))
		if !stderrors.Is(err, &sgerrors.Error{Phase: sgerrors.PhaseAttach, Kind: sgerrors.KindNotFound}) {
			t.Fatalf("expected not_found, got %v", err)
		}
	})

	t.Run("wrong global type", func(t *testing.T) {
		mod, _ := newFakeModule(64, 0)
		mod.globals[DefaultStackPointerGlobal] = &fakeGlobal{typ: api.ValueTypeI64}
		_, err := attach(mod, WithStackSize(16))
		if !stderrors.Is(err, &sgerrors.Error{Phase: sgerrors.PhaseAttach, Kind: sgerrors.KindInvalidInput}) {
			t.Fatalf("expected invalid_input, got %v", err)
		}
	})

	t.Run("no stack size", func(t *testing.T) {
		mod, _ := newFakeModule(1<<16, 0x8000)
		_, err := attach(mod)
		if !stderrors.Is(err, misconfigured) {
			t.Fatalf("expected misconfigured, got %v", err)
		}
	})

	t.Run("stack size above pointer", func(t *testing.T) {
		mod, _ := newFakeModule(1<<16, 0x100)
		_, err := attach(mod, WithStackSize(0x200))
		if !stderrors.Is(err, misconfigured) {
			t.Fatalf("expected misconfigured, got %v", err)
		}
	})

	t.Run("bounds beyond memory", func(t *testing.T) {
		mod, _ := newFakeModule(0x100, 0)
		_, err := attach(mod, WithBounds(0x80, 0x200))
		if !stderrors.Is(err, misconfigured) {
			t.Fatalf("expected misconfigured, got %v", err)
		}
	})

	t.Run("inverted bounds", func(t *testing.T) {
		mod, _ := newFakeModule(0x1000, 0)
		_, err := attach(mod, WithBounds(0x200, 0x100))
		if !stderrors.Is(err, misconfigured) {
			t.Fatalf("expected misconfigured, got %v", err)
		}
	})
}

func TestCustomGlobalName(t *testing.T) {
	mem := &fakeMemory{buf: make([]byte, 1<<16)}
	mod := &fakeModule{
		mem: mem,
		globals: map[string]api.Global{
			"sp": &fakeGlobal{value: 0x4000, typ: api.ValueTypeI32},
		},
	}

	p, err := attach(mod, WithStackPointerGlobal("sp"), WithStackSize(0x1000))
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if low, high := p.Bounds(); low != 0x3000 || high != 0x4000 {
		t.Fatalf("unexpected bounds: %#x %#x", low, high)
	}
}

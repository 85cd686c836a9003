package region

import (
	"unsafe"

	"github.com/embtrace/stackgauge/errors"
)

// Window is a raw byte window over [base, base+size). Access inside the
// bounds is unchecked pointer dereference; the caller guarantees the range
// is mapped and owned by the stack.
type Window struct {
	base uintptr
	size uint32
}

// NewWindow builds a raw window. Offset 0 maps to base, the deep end of
// the stack region.
func NewWindow(base uintptr, size uint32) *Window {
	return &Window{base: base, size: size}
}

// Size returns the window length in bytes.
func (w *Window) Size() uint32 { return w.size }

func (w *Window) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(w.size) {
		return errors.OutOfBounds(errors.PhaseScan, offset, length, w.size)
	}
	return nil
}

// Read returns a view of length bytes at offset. The view aliases the
// underlying memory; it is not a copy.
func (w *Window) Read(offset, length uint32) ([]byte, error) {
	if err := w.check(offset, length); err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(w.base+uintptr(offset))), length), nil
}

// Write copies data into the window at offset.
func (w *Window) Write(offset uint32, data []byte) error {
	if err := w.check(offset, uint32(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(w.base+uintptr(offset))), len(data))
	copy(dst, data)
	return nil
}

// ReadU8 reads the byte at offset.
func (w *Window) ReadU8(offset uint32) (uint8, error) {
	if err := w.check(offset, 1); err != nil {
		return 0, err
	}
	return *(*byte)(unsafe.Pointer(w.base + uintptr(offset))), nil
}

// WriteU8 writes the byte at offset.
func (w *Window) WriteU8(offset uint32, value uint8) error {
	if err := w.check(offset, 1); err != nil {
		return err
	}
	*(*byte)(unsafe.Pointer(w.base + uintptr(offset))) = value
	return nil
}

// SliceWindow is a window backed by an ordinary byte slice, for tests and
// host-side simulation. It keeps the slice reachable for as long as the
// window lives.
type SliceWindow struct {
	buf []byte
}

// FromSlice builds a window over buf. Offset 0 is buf[0], the deep end.
func FromSlice(buf []byte) *SliceWindow {
	return &SliceWindow{buf: buf}
}

// Size returns the window length in bytes.
func (w *SliceWindow) Size() uint32 { return uint32(len(w.buf)) }

func (w *SliceWindow) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(w.buf)) {
		return errors.OutOfBounds(errors.PhaseScan, offset, length, w.Size())
	}
	return nil
}

// Read returns a view of length bytes at offset.
func (w *SliceWindow) Read(offset, length uint32) ([]byte, error) {
	if err := w.check(offset, length); err != nil {
		return nil, err
	}
	return w.buf[offset : offset+length], nil
}

// Write copies data into the window at offset.
func (w *SliceWindow) Write(offset uint32, data []byte) error {
	if err := w.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(w.buf[offset:], data)
	return nil
}

// ReadU8 reads the byte at offset.
func (w *SliceWindow) ReadU8(offset uint32) (uint8, error) {
	if err := w.check(offset, 1); err != nil {
		return 0, err
	}
	return w.buf[offset], nil
}

// WriteU8 writes the byte at offset.
func (w *SliceWindow) WriteU8(offset uint32, value uint8) error {
	if err := w.check(offset, 1); err != nil {
		return err
	}
	w.buf[offset] = value
	return nil
}

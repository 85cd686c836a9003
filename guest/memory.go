package guest

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/embtrace/stackgauge/errors"
)

// window maps gauge offsets onto the [base, base+size) slice of guest
// linear memory holding the shadow stack. Offset 0 is the deep end.
type window struct {
	mem  api.Memory
	base uint32
	size uint32
}

func (w *window) Size() uint32 { return w.size }

func (w *window) check(phase errors.Phase, offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(w.size) {
		return errors.OutOfBounds(phase, offset, length, w.size)
	}
	return nil
}

func (w *window) Read(offset, length uint32) ([]byte, error) {
	if err := w.check(errors.PhaseScan, offset, length); err != nil {
		return nil, err
	}
	data, ok := w.mem.Read(w.base+offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseScan, w.base+offset, length, w.mem.Size())
	}
	return data, nil
}

func (w *window) Write(offset uint32, data []byte) error {
	if err := w.check(errors.PhasePaint, offset, uint32(len(data))); err != nil {
		return err
	}
	if !w.mem.Write(w.base+offset, data) {
		return errors.OutOfBounds(errors.PhasePaint, w.base+offset, uint32(len(data)), w.mem.Size())
	}
	return nil
}

func (w *window) ReadU8(offset uint32) (uint8, error) {
	if err := w.check(errors.PhaseScan, offset, 1); err != nil {
		return 0, err
	}
	v, ok := w.mem.ReadByte(w.base + offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseScan, w.base+offset, 1, w.mem.Size())
	}
	return v, nil
}

func (w *window) WriteU8(offset uint32, value uint8) error {
	if err := w.check(errors.PhasePaint, offset, 1); err != nil {
		return err
	}
	if !w.mem.WriteByte(w.base+offset, value) {
		return errors.OutOfBounds(errors.PhasePaint, w.base+offset, 1, w.mem.Size())
	}
	return nil
}

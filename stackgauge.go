package stackgauge

// Pattern is the sentinel byte written over the whole stack region before
// the stack is first used. Unused stack space keeps this value for the
// lifetime of the process; the estimate is the length of the unbroken run
// of Pattern bytes at the deep end of the region.
//
// The value is chosen to be unlikely in live stack data: non-zero, not a
// common pointer low byte, not 0xFF.
const Pattern byte = 0x5A

// Memory is a byte-addressed window over a stack region.
//
// Offset 0 is the DEEP end of the region: the lowest address, the one the
// stack pointer only reaches under maximum usage. Implementations over
// memory that can be resized or detached return an error for out-of-range
// access; raw fixed windows never fail.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	WriteU8(offset uint32, value uint8) error
}

// MemorySizer provides the size of a stack region window in bytes.
type MemorySizer interface {
	Size() uint32
}

// Sampler produces an unused-stack estimate. Implemented by gauge.Gauge,
// guest.Probe and anything else the monitor can poll.
type Sampler interface {
	Unused() (uint32, error)
}

package protocol

// Command is one set of head channel values
type Command struct {
	Extended uint8 // Flag byte, bit 1 = encoder lock
	Chin     uint8 // Jaw opening
	NeckRy   uint8 // Neck tilt (motor, encoder feedback)
	NeckRx   uint8 // Neck nod (servo)
	NeckRz   uint8 // Neck pan (motor, encoder feedback), 0x80 = centre
}

// DefaultCommand is the command in effect before any frame validates
func DefaultCommand() Command {
	return Command{
		Extended: 0x00,
		Chin:     0x00,
		NeckRx:   0x80,
		NeckRy:   0x00,
		NeckRz:   0x80,
	}
}

// EncoderLock reports whether the lock flag is set in Extended
func (c Command) EncoderLock() bool {
	return (c.Extended>>1)&1 == 1
}

// Payload returns the channels in wire order
func (c Command) Payload() [PayloadSize]byte {
	return [PayloadSize]byte{c.Extended, c.Chin, c.NeckRy, c.NeckRx, c.NeckRz}
}

// Checksum returns the payload sum modulo 256 (before escaping)
func (c Command) Checksum() uint8 {
	p := c.Payload()
	return Checksum(p[:])
}

// WithMotion returns c with the four motion channels taken from src
func (c Command) WithMotion(src Command) Command {
	c.Chin = src.Chin
	c.NeckRy = src.NeckRy
	c.NeckRx = src.NeckRx
	c.NeckRz = src.NeckRz
	return c
}

// Pack folds the command into one word so it can be published atomically
func (c Command) Pack() uint64 {
	return uint64(c.Extended) |
		uint64(c.Chin)<<8 |
		uint64(c.NeckRy)<<16 |
		uint64(c.NeckRx)<<24 |
		uint64(c.NeckRz)<<32
}

// UnpackCommand reverses Pack
func UnpackCommand(w uint64) Command {
	return Command{
		Extended: uint8(w),
		Chin:     uint8(w >> 8),
		NeckRy:   uint8(w >> 16),
		NeckRx:   uint8(w >> 24),
		NeckRz:   uint8(w >> 32),
	}
}

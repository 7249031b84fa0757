package protocol

import "sync/atomic"

// FrameHandler is called once per completed frame with the reassembled
// command and the checksum outcome. It runs in the receive context and must
// not block.
type FrameHandler func(frame Command, valid bool)

// DecoderStats counts decoder events since creation
type DecoderStats struct {
	Frames   uint32 // Frames that reached the checksum octet
	Valid    uint32 // Of those, frames whose checksum matched
	Rejected uint32 // Of those, frames whose checksum failed
	Resyncs  uint32 // Marker bytes that cut a frame short
}

// Decoder reassembles command frames from the serial byte stream.
//
// Only the receive context may call OnByte/Receive/Write. Stats may be read
// from anywhere.
type Decoder struct {
	octet    uint8   // Next octet index (0..6)
	checksum uint8   // Running payload sum
	pending  Command // Frame under construction, never read by control laws
	handler  FrameHandler

	frames   uint32 // atomic
	valid    uint32 // atomic
	rejected uint32 // atomic
	resyncs  uint32 // atomic
}

// NewDecoder creates a decoder reporting completed frames to handler
func NewDecoder(handler FrameHandler) *Decoder {
	return &Decoder{handler: handler}
}

// OnByte consumes one byte from the link
func (d *Decoder) OnByte(b byte) {
	// The marker always restarts the frame, then is handled as octet 0
	if b == MarkerByte {
		if d.octet != OctetMarker {
			atomic.AddUint32(&d.resyncs, 1)
		}
		d.octet = OctetMarker
	}

	switch d.octet {
	case OctetMarker:
		d.checksum = 0
		d.octet++
	case OctetExtended:
		d.pending.Extended = b
		d.accumulate(b)
	case OctetChin:
		d.pending.Chin = b
		d.accumulate(b)
	case OctetNeckRy:
		d.pending.NeckRy = b
		d.accumulate(b)
	case OctetNeckRx:
		d.pending.NeckRx = b
		d.accumulate(b)
	case OctetNeckRz:
		d.pending.NeckRz = b
		d.accumulate(b)
	case OctetChecksum:
		valid := ChecksumMatches(d.checksum, b)
		if valid {
			atomic.AddUint32(&d.valid, 1)
		} else {
			atomic.AddUint32(&d.rejected, 1)
		}
		atomic.AddUint32(&d.frames, 1)
		if d.handler != nil {
			d.handler(d.pending, valid)
		}
		d.octet = OctetMarker
	}
}

func (d *Decoder) accumulate(b byte) {
	d.checksum += b
	d.octet++
}

// Receive consumes everything available in input
func (d *Decoder) Receive(input InputBuffer) {
	data := input.Data()
	for _, b := range data {
		d.OnByte(b)
	}
	input.Pop(len(data))
}

// Write feeds p to the decoder so it can sit behind an io.Copy
func (d *Decoder) Write(p []byte) (int, error) {
	for _, b := range p {
		d.OnByte(b)
	}
	return len(p), nil
}

// Octet returns the index of the next expected octet
func (d *Decoder) Octet() uint8 {
	return d.octet
}

// Reset drops any partial frame
func (d *Decoder) Reset() {
	d.octet = OctetMarker
	d.checksum = 0
	d.pending = Command{}
}

// Stats returns a snapshot of the decoder counters
func (d *Decoder) Stats() DecoderStats {
	return DecoderStats{
		Frames:   atomic.LoadUint32(&d.frames),
		Valid:    atomic.LoadUint32(&d.valid),
		Rejected: atomic.LoadUint32(&d.rejected),
		Resyncs:  atomic.LoadUint32(&d.resyncs),
	}
}

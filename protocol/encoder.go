package protocol

import "errors"

// ErrMarkerInPayload is returned when a channel value equals the marker byte
var ErrMarkerInPayload = errors.New("channel value 0xFF is reserved for the frame marker")

// EncodeFrame builds the wire frame for c, escaping the checksum byte
func EncodeFrame(c Command) ([FrameSize]byte, error) {
	var frame [FrameSize]byte

	payload := c.Payload()
	for _, b := range payload {
		if b == MarkerByte {
			return frame, ErrMarkerInPayload
		}
	}

	frame[OctetMarker] = MarkerByte
	copy(frame[OctetExtended:OctetChecksum], payload[:])
	frame[OctetChecksum] = WireChecksum(Checksum(payload[:]))
	return frame, nil
}

// ClampChannel maps a requested channel value into the transmittable range
func ClampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > MarkerByte-1 {
		return MarkerByte - 1
	}
	return uint8(v)
}

package protocol

// Checksum returns the additive checksum of a payload, modulo 256
func Checksum(payload []byte) uint8 {
	var sum uint8
	for _, b := range payload {
		sum += b
	}
	return sum
}

// WireChecksum returns the checksum byte as transmitted.
// A sum of 0xFF would collide with the marker, so it goes out as 0xFE.
func WireChecksum(sum uint8) uint8 {
	if sum == MarkerByte {
		return EscapedChecksum
	}
	return sum
}

// ChecksumMatches reports whether a received checksum byte validates sum.
// 0xFE is also accepted for a true sum of 0xFF. The marker byte never
// validates.
func ChecksumMatches(sum uint8, received byte) bool {
	if received == MarkerByte {
		return false
	}
	if received == sum {
		return true
	}
	return sum == MarkerByte && received == EscapedChecksum
}

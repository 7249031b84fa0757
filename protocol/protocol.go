// Package protocol implements the head command link: a 7-byte framed stream
// carrying five command channels and an additive checksum.
package protocol

// Version represents the head firmware version
const Version = "0.3.0"

// Frame layout constants
//
//	[0xFF][extended][chin][neckRy][neckRx][neckRz][checksum]
const (
	FrameSize   = 7 // Marker + payload + checksum
	PayloadSize = 5 // Command channels per frame

	MarkerByte      = 0xFF // Reserved frame-start marker
	EscapedChecksum = 0xFE // Sent in place of a 0xFF checksum

	// Octet positions within a frame
	OctetMarker   = 0
	OctetExtended = 1
	OctetChin     = 2
	OctetNeckRy   = 3
	OctetNeckRx   = 4
	OctetNeckRz   = 5
	OctetChecksum = 6
)

// Extended byte flags
const (
	ExtendedEncoderLock = 1 << 1 // Freeze motion channels, commit extended only
)

// Status bus words
const (
	StatusQuery   uint16 = 0xFF00 // Request from the supervising peripheral
	StatusValid   uint16 = 0x00FF // Last frame validated
	StatusInvalid uint16 = 0x0000 // Last frame rejected (or none yet)
)

package serial

import (
	"errors"
	"io"
)

// DefaultBaud is the XBee link rate of the head
const DefaultBaud = 230400

// ErrNoDevice is returned by Open when no device path is configured
var ErrNoDevice = errors.New("serial: no device configured")

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - In-process loopback (simulator and tests)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string `mapstructure:"device" yaml:"device"`

	// Baud rate of the XBee link
	Baud int `mapstructure:"baud" yaml:"baud"`

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int `mapstructure:"readTimeoutMS" yaml:"readTimeoutMS"`
}

// DefaultConfig returns the head link configuration for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

package core

import "errors"

// PulseOutput is a servo output channel.
// Platform-specific implementations handle the actual PWM peripheral.
type PulseOutput interface {
	// SetPulseWidth sets the high time of each 20ms servo period in microseconds
	SetPulseWidth(us uint32) error
}

// MotorDriver is a bidirectional motor drive stage
type MotorDriver interface {
	// Drive sets the drive fraction: -1.0 (full reverse) to 1.0 (full forward)
	Drive(speed float64) error

	// Speed returns the drive fraction last applied
	Speed() float64
}

// Counter is a signed position counter, typically a quadrature encoder
type Counter interface {
	// Count returns the accumulated count since power-up
	Count() int32
}

// StatusBus is the secondary bus on which a supervisor polls for link status
type StatusBus interface {
	// Receive returns the next request word without blocking.
	// ok is false when nothing has arrived.
	Receive() (word uint16, ok bool)

	// Reply queues a response word for the next transaction
	Reply(word uint16) error
}

// Drivers bundles the hardware channels a head is wired to.
// Status may be nil when no supervisor is attached.
type Drivers struct {
	NeckRx PulseOutput
	Chin   PulseOutput

	NeckRy        MotorDriver
	NeckRyEncoder Counter
	NeckRz        MotorDriver
	NeckRzEncoder Counter

	Status StatusBus
}

// ErrDriverMissing is returned by Validate when a required channel is nil
var ErrDriverMissing = errors.New("head driver not configured")

// Validate checks that every actuator channel has a driver
func (d Drivers) Validate() error {
	if d.NeckRx == nil || d.Chin == nil ||
		d.NeckRy == nil || d.NeckRyEncoder == nil ||
		d.NeckRz == nil || d.NeckRzEncoder == nil {
		return ErrDriverMissing
	}
	return nil
}

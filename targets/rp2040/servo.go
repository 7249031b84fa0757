//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/servo"
)

// servoOutput drives a hobby servo. It implements core.PulseOutput.
type servoOutput struct {
	s servo.Servo
}

// newServoOutput configures pin for 50 Hz servo pulses
func newServoOutput(pin machine.Pin) (*servoOutput, error) {
	s, err := servo.New(pwmForPin(pin), pin)
	if err != nil {
		return nil, err
	}
	return &servoOutput{s: s}, nil
}

// SetPulseWidth sets the high time of each 20 ms frame
func (o *servoOutput) SetPulseWidth(us uint32) error {
	o.s.SetMicroseconds(int16(us))
	return nil
}

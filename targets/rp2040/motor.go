//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/l9110x"
)

// motorPWMPeriod is the H-bridge switching period (ns)
const motorPWMPeriod = 500 * 1000

// motorOutput drives a DC motor through an L9110-style H-bridge.
// It implements core.MotorDriver.
type motorOutput struct {
	dev   l9110x.PWMDevice
	speed float64
}

// newMotorOutput configures the two bridge inputs. Both pins must sit on
// the same PWM slice.
func newMotorOutput(ina, inb machine.Pin) (*motorOutput, error) {
	pwm := pwmForPin(ina)
	if err := pwm.Configure(machine.PWMConfig{Period: motorPWMPeriod}); err != nil {
		return nil, err
	}

	m := &motorOutput{dev: l9110x.NewWithSpeed(ina, inb, pwm)}
	if err := m.dev.Configure(); err != nil {
		return nil, err
	}
	return m, nil
}

// Drive sets a signed drive fraction in [-1, 1]
func (m *motorOutput) Drive(speed float64) error {
	if speed > 1 {
		speed = 1
	} else if speed < -1 {
		speed = -1
	}
	m.speed = speed

	// l9110x takes a percentage
	switch pct := uint32(abs(speed) * 100); {
	case pct == 0:
		m.dev.Stop()
	case speed > 0:
		m.dev.Forward(pct)
	default:
		m.dev.Backward(pct)
	}
	return nil
}

// Speed returns the last commanded drive
func (m *motorOutput) Speed() float64 {
	return m.speed
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

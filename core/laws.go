package core

// PulseLawConfig parameterises a servo channel.
//
//	target = clamp(Base + field*Scale, Min, Max)
type PulseLawConfig struct {
	Base    float64 `mapstructure:"base" yaml:"base"`       // Pulse at field 0 (µs)
	Scale   float64 `mapstructure:"scale" yaml:"scale"`     // µs per field step, sign sets direction
	Min     int32   `mapstructure:"min" yaml:"min"`         // Lower pulse bound (µs)
	Max     int32   `mapstructure:"max" yaml:"max"`         // Upper pulse bound (µs)
	Alpha   float64 `mapstructure:"alpha" yaml:"alpha"`     // Smoothing factor, (0,1]
	Initial int32   `mapstructure:"initial" yaml:"initial"` // Filter state at power-up (µs)
}

// PulseLaw eases a servo toward the pulse width a channel value maps to
type PulseLaw struct {
	cfg   PulseLawConfig
	state int32 // Current pulse width (µs)
}

// NewPulseLaw creates a law starting at cfg.Initial
func NewPulseLaw(cfg PulseLawConfig) *PulseLaw {
	return &PulseLaw{cfg: cfg, state: cfg.Initial}
}

// Target returns the clamped pulse width for a channel value
func (l *PulseLaw) Target(field uint8) int32 {
	// Conversion truncates toward zero
	target := int32(l.cfg.Base + float64(field)*l.cfg.Scale)
	return clampInt32(target, l.cfg.Min, l.cfg.Max)
}

// Step advances the filter one cycle and returns the new pulse width.
// The increment is truncated, so the state settles within 1/Alpha µs of
// the target without ever crossing it.
func (l *PulseLaw) Step(field uint8) int32 {
	target := l.Target(field)
	l.state += int32(float64(target-l.state) * l.cfg.Alpha)
	return l.state
}

// Pulse returns the current filter state
func (l *PulseLaw) Pulse() int32 {
	return l.state
}

// Reset returns the filter to its power-up value
func (l *PulseLaw) Reset() {
	l.state = l.cfg.Initial
}

// VelocityLawConfig parameterises an encoder-fed motor channel.
//
//	targetCount = (field - Offset) * Gain
type VelocityLawConfig struct {
	Gain        float64 `mapstructure:"gain" yaml:"gain"`               // Encoder counts per field step
	Offset      int     `mapstructure:"offset" yaml:"offset"`           // Field value mapping to count 0
	Threshold   float64 `mapstructure:"threshold" yaml:"threshold"`     // Deadband half-width (counts)
	Divisor     float64 `mapstructure:"divisor" yaml:"divisor"`         // Counts of error per unit of drive
	MaxSpeed    float64 `mapstructure:"maxSpeed" yaml:"maxSpeed"`       // Drive magnitude limit
	Alpha       float64 `mapstructure:"alpha" yaml:"alpha"`             // Smoothing factor, (0,1]
	InvertCount bool    `mapstructure:"invertCount" yaml:"invertCount"` // Encoder counts against drive direction
}

// VelocityLaw drives a motor toward the encoder count a channel value maps to
type VelocityLaw struct {
	cfg VelocityLawConfig

	lastTarget int32   // Target count of the last step
	lastCount  int32   // Encoder reading of the last step
	lastSpeed  float64 // Drive commanded by the last step
}

// NewVelocityLaw creates a velocity-tracking law
func NewVelocityLaw(cfg VelocityLawConfig) *VelocityLaw {
	return &VelocityLaw{cfg: cfg}
}

// TargetCount returns the encoder position a channel value maps to
func (l *VelocityLaw) TargetCount(field uint8) int32 {
	return int32(float64(int(field)-l.cfg.Offset) * l.cfg.Gain)
}

// TargetSpeed applies the deadband and proportional limit.
// Only the limit on the side the error points to is applied.
func (l *VelocityLaw) TargetSpeed(target, current float64) float64 {
	switch {
	case target-l.cfg.Threshold > current:
		speed := (target - current) / l.cfg.Divisor
		if speed > l.cfg.MaxSpeed {
			speed = l.cfg.MaxSpeed
		}
		return speed
	case target+l.cfg.Threshold < current:
		speed := (target - current) / l.cfg.Divisor
		if speed < -l.cfg.MaxSpeed {
			speed = -l.cfg.MaxSpeed
		}
		return speed
	default:
		return 0
	}
}

// Step runs one cycle: read the encoder, pick a target speed, ease the
// motor's current speed toward it and drive the result.
func (l *VelocityLaw) Step(field uint8, enc Counter, motor MotorDriver) (float64, error) {
	target := l.TargetCount(field)
	count := enc.Count()
	if l.cfg.InvertCount {
		count = -count
	}

	speed := l.TargetSpeed(float64(target), float64(count))
	current := motor.Speed()
	next := current + (speed-current)*l.cfg.Alpha

	l.lastTarget = target
	l.lastCount = count
	l.lastSpeed = next
	return next, motor.Drive(next)
}

// Last returns the target count, encoder count and drive of the last step
func (l *VelocityLaw) Last() (target, count int32, speed float64) {
	return l.lastTarget, l.lastCount, l.lastSpeed
}

func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

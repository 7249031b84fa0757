package core

// Servo pulse limits (µs)
const (
	NeckRxMinPulse = 1338
	NeckRxMaxPulse = 1722
	ChinMinPulse   = 1360
	ChinMaxPulse   = 1900
)

// Config is the full actuator parameter set of a head
type Config struct {
	NeckRx PulseLawConfig    `mapstructure:"neckRx" yaml:"neckRx"`
	Chin   PulseLawConfig    `mapstructure:"chin" yaml:"chin"`
	NeckRy VelocityLawConfig `mapstructure:"neckRy" yaml:"neckRy"`
	NeckRz VelocityLawConfig `mapstructure:"neckRz" yaml:"neckRz"`

	// CyclePeriodUS is the control period; 0 runs a cycle on every loop pass
	CyclePeriodUS uint32 `mapstructure:"cyclePeriodUS" yaml:"cyclePeriodUS"`
}

// DefaultConfig returns the calibrated parameters of the production head
func DefaultConfig() Config {
	return Config{
		NeckRx: PulseLawConfig{
			Base:    NeckRxMaxPulse,
			Scale:   -1.5,
			Min:     NeckRxMinPulse,
			Max:     NeckRxMaxPulse,
			Alpha:   0.2,
			Initial: 1472,
		},
		Chin: PulseLawConfig{
			Base:    ChinMinPulse,
			Scale:   2.5,
			Min:     ChinMinPulse,
			Max:     ChinMaxPulse,
			Alpha:   0.2,
			Initial: 1530,
		},
		NeckRy: VelocityLawConfig{
			Gain:      -2,
			Offset:    0,
			Threshold: 15,
			Divisor:   30,
			MaxSpeed:  0.85,
			Alpha:     0.4,
		},
		NeckRz: VelocityLawConfig{
			Gain:        1.34,
			Offset:      0x80,
			Threshold:   25,
			Divisor:     50,
			MaxSpeed:    0.85,
			Alpha:       0.8,
			InvertCount: true,
		},
	}
}

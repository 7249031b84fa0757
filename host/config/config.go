package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"animahead/core"
	"animahead/host/serial"
)

// EnvPrefix prefixes every environment override, e.g. HEAD_SERIAL_DEVICE
const EnvPrefix = "HEAD"

// Validation errors
var (
	ErrBadRate      = errors.New("config: uplink rate must be positive")
	ErrBadAlpha     = errors.New("config: smoothing factor must be in (0,1]")
	ErrBadPulseBand = errors.New("config: pulse min exceeds max")
	ErrBadDivisor   = errors.New("config: velocity divisor must be positive")
)

// LumberjackConfig is the rotating log file configuration
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize" yaml:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups" yaml:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge" yaml:"maxAge"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// LoggingConfig is the log level and output configuration
type LoggingConfig struct {
	Level  string           `mapstructure:"level" yaml:"level"`
	Format string           `mapstructure:"format" yaml:"format"`
	File   LumberjackConfig `mapstructure:"file" yaml:"file"`
}

// MetricsConfig controls the Prometheus endpoint of the simulator
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable" yaml:"enable"`
	Addr   string `mapstructure:"addr" yaml:"addr"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// UplinkConfig paces frames sent to the head
type UplinkConfig struct {
	RateHz float64 `mapstructure:"rateHz" yaml:"rateHz"`
	Burst  int     `mapstructure:"burst" yaml:"burst"`
}

// Config is the top-level configuration of the host tools
type Config struct {
	Serial    serial.Config `mapstructure:"serial" yaml:"serial"`
	Uplink    UplinkConfig  `mapstructure:"uplink" yaml:"uplink"`
	Logging   LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Actuators core.Config   `mapstructure:"actuators" yaml:"actuators"`

	// StatusPoll is how often the simulator issues a status query
	StatusPoll time.Duration `mapstructure:"statusPoll" yaml:"statusPoll"`
}

// Load reads configuration from a YAML/TOML/JSON file and the environment.
// With an empty path it looks for head.yaml in . and ./configs, and runs on
// defaults when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("head")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values a typo can make unsafe for the hardware
func (c *Config) Validate() error {
	if c.Uplink.RateHz <= 0 {
		return ErrBadRate
	}
	for name, p := range map[string]core.PulseLawConfig{
		"neckRx": c.Actuators.NeckRx,
		"chin":   c.Actuators.Chin,
	} {
		if p.Alpha <= 0 || p.Alpha > 1 {
			return fmt.Errorf("%s: %w", name, ErrBadAlpha)
		}
		if p.Min > p.Max {
			return fmt.Errorf("%s: %w", name, ErrBadPulseBand)
		}
	}
	for name, l := range map[string]core.VelocityLawConfig{
		"neckRy": c.Actuators.NeckRy,
		"neckRz": c.Actuators.NeckRz,
	} {
		if l.Alpha <= 0 || l.Alpha > 1 {
			return fmt.Errorf("%s: %w", name, ErrBadAlpha)
		}
		if l.Divisor <= 0 {
			return fmt.Errorf("%s: %w", name, ErrBadDivisor)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	sc := serial.DefaultConfig("")
	v.SetDefault("serial.device", "")
	v.SetDefault("serial.baud", sc.Baud)
	v.SetDefault("serial.readTimeoutMS", sc.ReadTimeout)

	v.SetDefault("uplink.rateHz", 50.0)
	v.SetDefault("uplink.burst", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "logs/head.log")
	v.SetDefault("logging.file.maxSize", 20)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 7)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.addr", ":9108")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("statusPoll", "100ms")

	setActuatorDefaults(v, core.DefaultConfig())
}

func setActuatorDefaults(v *viper.Viper, a core.Config) {
	pulse := func(key string, p core.PulseLawConfig) {
		v.SetDefault(key+".base", p.Base)
		v.SetDefault(key+".scale", p.Scale)
		v.SetDefault(key+".min", p.Min)
		v.SetDefault(key+".max", p.Max)
		v.SetDefault(key+".alpha", p.Alpha)
		v.SetDefault(key+".initial", p.Initial)
	}
	velocity := func(key string, l core.VelocityLawConfig) {
		v.SetDefault(key+".gain", l.Gain)
		v.SetDefault(key+".offset", l.Offset)
		v.SetDefault(key+".threshold", l.Threshold)
		v.SetDefault(key+".divisor", l.Divisor)
		v.SetDefault(key+".maxSpeed", l.MaxSpeed)
		v.SetDefault(key+".alpha", l.Alpha)
		v.SetDefault(key+".invertCount", l.InvertCount)
	}

	pulse("actuators.neckRx", a.NeckRx)
	pulse("actuators.chin", a.Chin)
	velocity("actuators.neckRy", a.NeckRy)
	velocity("actuators.neckRz", a.NeckRz)
	v.SetDefault("actuators.cyclePeriodUS", 1000)
}

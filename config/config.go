package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ardnew/isosim/usb"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. ISOSIM_STREAM_CAPACITY_BYTES for stream.capacity_bytes.
const EnvPrefix = "ISOSIM"

// Config holds all simulator configuration.
type Config struct {
	Stream   StreamConfig   `mapstructure:"stream"`
	Endpoint EndpointConfig `mapstructure:"endpoint"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// StreamConfig sizes the ring buffer and the microframes moved through it.
type StreamConfig struct {
	// CapacityBytes is the ring buffer size. It should be a whole multiple
	// of FrameSize; the remainder is never used.
	CapacityBytes int `mapstructure:"capacity_bytes"`
	// FrameSize is the payload of one microframe in bytes.
	FrameSize int `mapstructure:"frame_size"`
	// AudioDataSize is the audio portion of each generated frame; the rest
	// is zero padding.
	AudioDataSize int `mapstructure:"audio_data_size"`
	// Duration is how long to stream before stopping.
	Duration time.Duration `mapstructure:"duration"`
}

// EndpointConfig describes the simulated isochronous IN endpoint.
type EndpointConfig struct {
	Address  int `mapstructure:"address"`  // bEndpointAddress, e.g. 0x81
	Interval int `mapstructure:"interval"` // bInterval, 1..16
}

// LoggingConfig controls simulator log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics and /debug/pprof/.
	// Empty disables the server.
	Addr string `mapstructure:"addr"`
}

// Default returns a Config with the default 8-microframe stream.
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			CapacityBytes: 8 * usb.DefaultMicroframeSize,
			FrameSize:     usb.DefaultMicroframeSize,
			AudioDataSize: usb.DefaultAudioDataSize,
			Duration:      time.Second,
		},
		Endpoint: EndpointConfig{
			Address:  usb.DefaultEndpointAddress,
			Interval: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Frames returns the number of whole microframes the buffer holds.
func (c *StreamConfig) Frames() int {
	if c.FrameSize <= 0 {
		return 0
	}
	return c.CapacityBytes / c.FrameSize
}

// SetDefaults registers every default with v so that keys resolve without
// a config file.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("stream.capacity_bytes", defaults.Stream.CapacityBytes)
	v.SetDefault("stream.frame_size", defaults.Stream.FrameSize)
	v.SetDefault("stream.audio_data_size", defaults.Stream.AudioDataSize)
	v.SetDefault("stream.duration", defaults.Stream.Duration)

	v.SetDefault("endpoint.address", defaults.Endpoint.Address)
	v.SetDefault("endpoint.interval", defaults.Endpoint.Interval)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	v.SetDefault("metrics.addr", defaults.Metrics.Addr)
}

// New returns a viper instance with defaults and environment overrides
// installed. If file is non-empty it is read; a missing file is an error.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return &cfg, nil
}

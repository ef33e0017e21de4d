package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/goadc/pkg/stream"
)

// Config represents the application configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Sampling SamplingConfig `yaml:"sampling"`
	Record   RecordConfig   `yaml:"record"`
	Mock     MockConfig     `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// SamplingConfig describes the device's sampling setup: the ordered analog
// channel list, the sampling interval and the depth of the hand-off queue
// between capture and transmission. The channel list is fixed before
// sampling starts and is never mutated afterwards.
type SamplingConfig struct {
	Channels       []int `yaml:"channels"`
	IntervalMicros int64 `yaml:"interval_us"`
	QueueDepth     int   `yaml:"queue_depth"`
}

// Interval returns the sampling interval as a duration.
func (s SamplingConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMicros) * time.Microsecond
}

// RecordConfig contains host-side recording parameters.
type RecordConfig struct {
	WindowSamples int `yaml:"window_samples"` // Number of most recent frames kept
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	FullScale  int           `yaml:"full_scale"`  // Maximum reading the simulated converter produces
	Period     time.Duration `yaml:"period"`      // Base waveform period
	NoiseLevel float32       `yaml:"noise_level"` // Noise amplitude as a fraction of full scale
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			Baud: 500000,
		},
		Sampling: SamplingConfig{
			Channels:       []int{0, 1, 2, 3, 4, 5},
			IntervalMicros: 1000,
			QueueDepth:     stream.DefaultQueueDepth,
		},
		Record: RecordConfig{
			WindowSamples: 1000,
		},
		Mock: MockConfig{
			FullScale:  1023,
			Period:     2 * time.Second,
			NoiseLevel: 0.01,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration against the constraints that must hold
// before sampling starts. All of these are fatal: a process with an invalid
// configuration must refuse to start rather than emit corrupt data.
func (c *Config) Validate() error {
	if len(c.Sampling.Channels) == 0 {
		return fmt.Errorf("sampling: channel list is empty")
	}
	if c.Sampling.IntervalMicros <= 0 {
		return fmt.Errorf("sampling: interval must be positive, got %dus", c.Sampling.IntervalMicros)
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial: baud rate must be positive, got %d", c.Serial.Baud)
	}
	if err := stream.CheckRate(c.Serial.Baud, c.Sampling.IntervalMicros, len(c.Sampling.Channels)); err != nil {
		return fmt.Errorf("serial: %w", err)
	}
	if c.Record.WindowSamples <= 0 {
		return fmt.Errorf("record: window must be positive, got %d", c.Record.WindowSamples)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if len(c.Sampling.Channels) == 0 {
		c.Sampling.Channels = def.Sampling.Channels
	}
	if c.Sampling.IntervalMicros == 0 {
		c.Sampling.IntervalMicros = def.Sampling.IntervalMicros
	}
	if c.Sampling.QueueDepth == 0 {
		c.Sampling.QueueDepth = def.Sampling.QueueDepth
	}

	if c.Record.WindowSamples == 0 {
		c.Record.WindowSamples = def.Record.WindowSamples
	}

	if c.Mock.FullScale == 0 {
		c.Mock.FullScale = def.Mock.FullScale
	}
	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
	if c.Mock.NoiseLevel == 0 {
		c.Mock.NoiseLevel = def.Mock.NoiseLevel
	}
}

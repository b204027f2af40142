// Package config loads the fanctl host tool configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fanctl/host/serial"
	"fanctl/protocol"
)

type Config struct {
	Serial SerialConfig `yaml:"serial"`
}

type SerialConfig struct {
	Device    string `yaml:"device"`
	Baud      int    `yaml:"baud"`
	TimeoutMs int    `yaml:"timeout_ms"` // Reply deadline
	ReadMs    int    `yaml:"read_ms"`    // Port read timeout
}

// Defaults used for fields left empty.
const (
	DefaultDevice    = "/dev/ttyUSB0"
	DefaultTimeoutMs = 500
	DefaultReadMs    = 50
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills zero fields with defaults.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	s := &cfg.Serial
	if s.Device == "" {
		s.Device = DefaultDevice
	}
	if s.Baud == 0 {
		s.Baud = protocol.BaudRate
	}
	if s.TimeoutMs == 0 {
		s.TimeoutMs = DefaultTimeoutMs
	}
	if s.ReadMs == 0 {
		s.ReadMs = DefaultReadMs
	}
}

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	s := cfg.Serial
	if s.Baud != protocol.BaudRate {
		return fmt.Errorf("serial.baud: firmware only supports %d, got %d", protocol.BaudRate, s.Baud)
	}
	if s.TimeoutMs < 0 || s.ReadMs < 0 {
		return fmt.Errorf("serial: timeouts must not be negative")
	}
	if s.ReadMs > s.TimeoutMs {
		return fmt.Errorf("serial.read_ms (%d) exceeds timeout_ms (%d)", s.ReadMs, s.TimeoutMs)
	}
	return nil
}

// SerialPort converts the serial section to a port configuration.
func (c *Config) SerialPort() *serial.Config {
	return &serial.Config{
		Device:      c.Serial.Device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadMs,
	}
}

// Timeout returns the reply deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Serial.TimeoutMs) * time.Millisecond
}

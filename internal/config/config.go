// Package config loads daemon settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Payload encodings for MQTT messages.
const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

// Config is the complete daemon configuration.
type Config struct {
	Name      string `yaml:"name"`
	HCIDevice int    `yaml:"hci_device"`

	// KeepUnclassified stores badges that match no catalog group.
	KeepUnclassified bool `yaml:"keep_unclassified"`

	MQTT      MQTTConfig    `yaml:"mqtt"`
	HTTP      string        `yaml:"http"`
	LEDPin    int           `yaml:"led_pin"`
	Sensor    SensorConfig  `yaml:"sensor"`
	Rabies    RabiesConfig  `yaml:"rabies"`
	Tick      time.Duration `yaml:"tick"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// MQTTConfig configures event publishing.
type MQTTConfig struct {
	Broker      string  `yaml:"broker"`
	TopicPrefix string  `yaml:"topic_prefix"`
	Encoding    string  `yaml:"encoding"`
	RatePerSec  float64 `yaml:"rate_per_sec"`
	Burst       int     `yaml:"burst"`
	BufferSize  int     `yaml:"buffer_size"`
}

// SensorConfig configures the optional VL6180X sensor.
type SensorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bus     string `yaml:"bus"`
}

// RabiesConfig tunes the infection game.
type RabiesConfig struct {
	Threshold  int           `yaml:"threshold"`
	Incubation time.Duration `yaml:"incubation"`
	Window     time.Duration `yaml:"window"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Name: "DCZia",
		MQTT: MQTTConfig{
			Broker:      "tcp://192.168.1.200:1883",
			TopicPrefix: "badge/sensor",
			Encoding:    EncodingJSON,
			RatePerSec:  2,
			Burst:       10,
			BufferSize:  100,
		},
		HTTP:   ":80",
		LEDPin: 17,
		Rabies: RabiesConfig{
			Threshold:  -70,
			Incubation: 30 * time.Second,
			Window:     15 * time.Second,
		},
		Tick:      time.Second,
		Heartbeat: 15 * time.Minute,
	}
}

// Load reads path over Defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func Validate(cfg *Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalid)
	}
	if len(cfg.Name) > 16 {
		return fmt.Errorf("%w: name %q longer than 16 bytes", ErrInvalid, cfg.Name)
	}
	if cfg.HCIDevice < 0 {
		return fmt.Errorf("%w: hci_device %d", ErrInvalid, cfg.HCIDevice)
	}
	switch cfg.MQTT.Encoding {
	case EncodingJSON, EncodingCBOR:
	default:
		return fmt.Errorf("%w: mqtt.encoding %q (want json or cbor)", ErrInvalid, cfg.MQTT.Encoding)
	}
	if cfg.MQTT.RatePerSec <= 0 || cfg.MQTT.Burst < 1 {
		return fmt.Errorf("%w: mqtt rate %.2f/s burst %d", ErrInvalid, cfg.MQTT.RatePerSec, cfg.MQTT.Burst)
	}
	if cfg.MQTT.BufferSize < 1 {
		return fmt.Errorf("%w: mqtt.buffer_size %d", ErrInvalid, cfg.MQTT.BufferSize)
	}
	if cfg.Rabies.Threshold < -128 || cfg.Rabies.Threshold > 0 {
		return fmt.Errorf("%w: rabies.threshold %d dBm out of range", ErrInvalid, cfg.Rabies.Threshold)
	}
	if cfg.Rabies.Incubation < 0 || cfg.Rabies.Window < 0 {
		return fmt.Errorf("%w: rabies durations must not be negative", ErrInvalid)
	}
	if cfg.Tick <= 0 {
		return fmt.Errorf("%w: tick %v", ErrInvalid, cfg.Tick)
	}
	if cfg.Heartbeat < 0 {
		return fmt.Errorf("%w: heartbeat %v", ErrInvalid, cfg.Heartbeat)
	}
	return nil
}

package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "ACCEL_"
	envConfigFile = "ACCEL_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ACCEL_CONFIG is set
//  3. env (prefix ACCEL_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// ACCEL_LOOK_BACK_WINDOW_SIZE -> look_back_window_size
	// ACCEL_MQTT__BROKER          -> mqtt.broker
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	// Lists from a file replace the defaults rather than merging into them.
	if k.Exists("classes") {
		cfg.Classes = nil
	}
	if k.Exists("mqtt.topics") {
		cfg.MQTT.Topics = nil
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside the
// pipeline.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	switch c.Mode {
	case "live", "record":
	default:
		return invalid("mode must be live or record, got %q", c.Mode)
	}
	switch c.WireMode {
	case "packed", "per_axis":
	default:
		return invalid("wire_mode must be packed or per_axis, got %q", c.WireMode)
	}
	switch c.Encoding {
	case "text", "binary":
	default:
		return invalid("encoding must be text or binary, got %q", c.Encoding)
	}
	if c.Encoding == "binary" && c.WireMode == "packed" {
		return invalid("binary encoding requires per_axis wire mode")
	}
	if c.Delimiter == "" {
		return invalid("delimiter must not be empty")
	}
	if c.LookBackWindowSize <= 0 {
		return invalid("look_back_window_size must be positive, got %d", c.LookBackWindowSize)
	}
	if c.NumFeatures != 3 {
		return invalid("num_features must be 3, got %d", c.NumFeatures)
	}
	if c.MaxInFlight <= 0 || c.MaxSources <= 0 || c.QueueSize <= 0 {
		return invalid("max_in_flight, max_sources and queue_size must be positive")
	}
	if c.SessionSeconds < 0 {
		return invalid("session_seconds must not be negative")
	}
	switch c.Store {
	case "csv", "sqlite":
	default:
		return invalid("store must be csv or sqlite, got %q", c.Store)
	}
	if c.Mode == "record" && c.Activity == "" {
		return invalid("activity must be set in record mode")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return invalid("mqtt.qos must be 0, 1 or 2")
	}
	return c.validateClasses()
}

func (c *Config) validateClasses() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("%w: at least one class is required", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Classes))
	for _, cl := range c.Classes {
		if cl.Name == "" {
			return fmt.Errorf("%w: class name must not be empty", ErrInvalidConfig)
		}
		if seen[cl.Name] {
			return fmt.Errorf("%w: duplicate class %q", ErrInvalidConfig, cl.Name)
		}
		seen[cl.Name] = true
		if len(cl.OneHot) != len(c.Classes) {
			return fmt.Errorf("%w: class %q one_hot has %d entries, want %d", ErrInvalidConfig, cl.Name, len(cl.OneHot), len(c.Classes))
		}
		ones, other := 0, false
		for _, v := range cl.OneHot {
			switch v {
			case 0:
			case 1:
				ones++
			default:
				other = true
			}
		}
		if ones != 1 || other {
			return fmt.Errorf("%w: class %q one_hot is not one-hot", ErrInvalidConfig, cl.Name)
		}
		if cl.Pattern != "" {
			if _, err := regexp.Compile(cl.Pattern); err != nil {
				return fmt.Errorf("%w: class %q pattern: %w", ErrInvalidConfig, cl.Name, err)
			}
		}
	}
	return nil
}

package cliconfig

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Config holds CLI configuration for zabbix-sender.
type Config struct {
	Server string
	Port   int

	// Host is the monitored host values are reported for.
	// Empty means the local host name.
	Host string

	Key       string
	Value     string
	InputFile string

	Timeout   time.Duration
	Interval  time.Duration
	Retries   int
	KeepAlive bool
	Verbose   bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Port:    10051,
		Timeout: 5 * time.Second,
		Retries: 1,
	}
}

// Validate checks that enough is configured to send something.
// It never touches the network.
func (c *Config) Validate() error {
	if c.Server == "" {
		return errors.New("zabbix-server is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.InputFile != "" {
		if c.Key != "" || c.Value != "" {
			return errors.New("input-file cannot be combined with key and value")
		}
	} else {
		if c.Key == "" {
			return errors.New("key is required (or input-file)")
		}
		if c.Value == "" {
			return errors.New("value is required (or input-file)")
		}
	}

	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Interval < 0 {
		return errors.New("interval must not be negative")
	}
	if c.Retries <= 0 {
		return errors.New("retries must be at least 1")
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

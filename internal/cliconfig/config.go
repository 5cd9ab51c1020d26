// Package cliconfig holds the CLI configuration surface: defaults, the
// TOML config file, INFICON_* environment overrides, and startup
// validation. Precedence is flags > env > file > defaults.
package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultPort is the first USB serial device on most Linux systems.
// On-board RS232 ports are typically /dev/ttyS0.
const DefaultPort = "/dev/ttyUSB0"

// Config holds CLI configuration for the gauge poller. It is immutable
// for the process lifetime once Validate has run.
type Config struct {
	Port     string
	Baudrate int
	DataBits int
	Parity   string
	StopBits int
	Timeout  time.Duration

	SoftFlow bool
	HardFlow bool

	Log         string // "STDOUT" for console, otherwise a file to append to
	Interactive bool

	PollInterval time.Duration
	Oneshot      bool
	Gauges       string

	// GaugeList is derived from Gauges during Validate.
	GaugeList []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Port:         DefaultPort,
		Baudrate:     9600,
		DataBits:     8,
		Parity:       "N",
		StopBits:     1,
		Timeout:      5 * time.Second,
		Log:          "STDOUT",
		PollInterval: 60 * time.Second,
		Gauges:       "0,1",
	}
}

// Validate checks the configuration for errors and sets derived values.
// Gauge and line-setting errors are fatal and detected here, before any
// serial I/O happens.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Baudrate <= 0 {
		return fmt.Errorf("baudrate must be positive")
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("databits must be 5-8, got %d", c.DataBits)
	}
	switch c.Parity {
	case "N", "E", "O":
	default:
		return fmt.Errorf("parity must be N, E or O, got %q", c.Parity)
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("stopbits must be 1 or 2, got %d", c.StopBits)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Log == "" {
		return fmt.Errorf("log is required (STDOUT for console)")
	}

	// Gauge sanity check.
	c.GaugeList = nil
	for _, gauge := range strings.Split(c.Gauges, ",") {
		n, err := strconv.Atoi(gauge)
		if err != nil {
			return fmt.Errorf("invalid gauge %q", gauge)
		}
		if n < 0 || n > 9 {
			return fmt.Errorf("invalid gauge %q (should be 0-9)", gauge)
		}
		c.GaugeList = append(c.GaugeList, gauge)
	}
	if len(c.GaugeList) == 0 {
		return fmt.Errorf("at least one gauge is required")
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
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

// setDuration parses and sets a duration from string if valid and flag not
// changed.
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

// setIntFromString parses a string to int and sets the destination if
// valid. Used for environment variables that come as strings.
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

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false. Used for
// environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

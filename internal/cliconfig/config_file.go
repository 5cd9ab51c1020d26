package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML
// friendly.
type FileConfig struct {
	Port         string `toml:"port"`
	Baudrate     int    `toml:"baudrate"`
	DataBits     int    `toml:"databits"`
	Parity       string `toml:"parity"`
	StopBits     int    `toml:"stopbits"`
	Timeout      string `toml:"timeout"`
	SoftFlow     *bool  `toml:"softflow"`
	HardFlow     *bool  `toml:"hardflow"`
	Log          string `toml:"log"`
	Interactive  *bool  `toml:"interactive"`
	PollInterval string `toml:"poll_interval"`
	Oneshot      *bool  `toml:"oneshot"`
	Gauges       string `toml:"gauges"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.inficon/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".inficon", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("port", fc.Port, &cfg.Port)
	s.setString("parity", fc.Parity, &cfg.Parity)
	s.setString("log", fc.Log, &cfg.Log)
	s.setString("gauges", fc.Gauges, &cfg.Gauges)

	s.setInt("baudrate", fc.Baudrate, &cfg.Baudrate)
	s.setInt("databits", fc.DataBits, &cfg.DataBits)
	s.setInt("stopbits", fc.StopBits, &cfg.StopBits)

	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}

	s.setBool("softflow", fc.SoftFlow, &cfg.SoftFlow)
	s.setBool("hardflow", fc.HardFlow, &cfg.HardFlow)
	s.setBool("interactive", fc.Interactive, &cfg.Interactive)
	s.setBool("oneshot", fc.Oneshot, &cfg.Oneshot)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

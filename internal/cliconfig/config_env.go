package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (INFICON_*). It respects flags that have been explicitly set (changed
// map). Returns an error if any environment variable has an invalid
// format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("port", os.Getenv("INFICON_PORT"), &cfg.Port)
	s.setString("parity", os.Getenv("INFICON_PARITY"), &cfg.Parity)
	s.setString("log", os.Getenv("INFICON_LOG"), &cfg.Log)
	s.setString("gauges", os.Getenv("INFICON_GAUGES"), &cfg.Gauges)

	if err := s.setIntFromString("baudrate", os.Getenv("INFICON_BAUDRATE"), &cfg.Baudrate); err != nil {
		return err
	}
	if err := s.setIntFromString("databits", os.Getenv("INFICON_DATABITS"), &cfg.DataBits); err != nil {
		return err
	}
	if err := s.setIntFromString("stopbits", os.Getenv("INFICON_STOPBITS"), &cfg.StopBits); err != nil {
		return err
	}

	if err := s.setDuration("timeout", os.Getenv("INFICON_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("poll", os.Getenv("INFICON_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}

	s.setBoolFromString("softflow", os.Getenv("INFICON_SOFTFLOW"), &cfg.SoftFlow)
	s.setBoolFromString("hardflow", os.Getenv("INFICON_HARDFLOW"), &cfg.HardFlow)
	s.setBoolFromString("interactive", os.Getenv("INFICON_INTERACTIVE"), &cfg.Interactive)
	s.setBoolFromString("oneshot", os.Getenv("INFICON_ONESHOT"), &cfg.Oneshot)

	return nil
}

// Package session owns the serial connection to the gauge controller and
// exchanges framed messages over it.
//
// Transport faults (sync timeout, short payload, bad checksum, failed
// write) never terminate the session: they are logged to the diagnostic
// channel and surface as an empty result, so an unattended polling loop
// survives a noisy line.
package session

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"

	"github.com/hackerfriendly/inficon/internal/frame"
)

// Transport is the message exchange surface the polling loop and the REPL
// depend on.
type Transport interface {
	Send(cmd string) error
	Receive() (string, error)
}

// Session is a Transport over an exclusively owned serial connection.
// It is not safe for concurrent use; the polling pattern is strictly
// sequential.
type Session struct {
	port    io.ReadWriteCloser
	retries int
	log     zerolog.Logger
}

// Open opens the configured serial port and wraps it in a Session.
// An open failure is a fatal setup error for the caller.
func Open(cfg PortConfig, log zerolog.Logger) (*Session, error) {
	sc, err := cfg.serialConfig()
	if err != nil {
		return nil, err
	}
	if cfg.SoftFlow || cfg.HardFlow {
		log.Warn().
			Bool("softflow", cfg.SoftFlow).
			Bool("hardflow", cfg.HardFlow).
			Msg("flow control requested but not supported by the serial driver")
	}
	port, err := serial.OpenPort(sc)
	if err != nil {
		return nil, err
	}
	return New(port, frame.DefaultRetries, log), nil
}

// New wraps an already open byte stream. Tests script rw directly.
func New(rw io.ReadWriteCloser, retries int, log zerolog.Logger) *Session {
	if retries <= 0 {
		retries = frame.DefaultRetries
	}
	return &Session{port: rw, retries: retries, log: log}
}

// Send encodes cmd and writes the full frame in one operation. A write
// failure is logged with the attempted command and returned; the session
// remains usable for subsequent calls.
func (s *Session) Send(cmd string) error {
	wire, err := frame.Encode(cmd)
	if err != nil {
		return err
	}
	if _, err := s.port.Write(wire); err != nil {
		s.log.Error().
			Err(err).
			Str("command", cmd).
			Time("at", time.Now()).
			Msg("serial timeout sending command")
		return err
	}
	return nil
}

// Receive consumes up to one full response frame and returns its payload.
// On any transport fault it logs the taxonomy-specific diagnostic and
// returns an empty payload with the fault; the caller proceeds to its next
// polling action rather than aborting.
func (s *Session) Receive() (string, error) {
	payload, err := frame.Decode(s.port, s.retries)
	if err == nil {
		return payload, nil
	}

	switch {
	case errors.Is(err, frame.ErrSyncTimeout):
		s.log.Error().Msg("timeout while waiting for STX")
	case errors.Is(err, frame.ErrLengthMismatch):
		s.log.Error().
			Err(err).
			Time("at", time.Now()).
			Msg("serial timeout while receiving data")
	case errors.Is(err, frame.ErrChecksumMismatch):
		s.log.Error().Err(err).Msg("invalid message")
	default:
		s.log.Error().Err(err).Msg("receive failed")
	}
	return "", err
}

// Close releases the serial connection.
func (s *Session) Close() error {
	return s.port.Close()
}

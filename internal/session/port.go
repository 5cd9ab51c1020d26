package session

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// PortConfig holds the serial line settings. It is immutable for the
// process lifetime; see cliconfig for how it is populated.
type PortConfig struct {
	Path        string
	Baud        int
	DataBits    int
	Parity      string // "N", "E" or "O"
	StopBits    int
	ReadTimeout time.Duration

	// Flow control flags are accepted for parity with existing device
	// setups. The serial driver does not implement either; Open logs a
	// warning when they are set.
	SoftFlow bool
	HardFlow bool
}

func (c PortConfig) serialConfig() (*serial.Config, error) {
	var parity serial.Parity
	switch c.Parity {
	case "", "N":
		parity = serial.ParityNone
	case "E":
		parity = serial.ParityEven
	case "O":
		parity = serial.ParityOdd
	default:
		return nil, fmt.Errorf("session: unsupported parity %q", c.Parity)
	}

	var stop serial.StopBits
	switch c.StopBits {
	case 0, 1:
		stop = serial.Stop1
	case 2:
		stop = serial.Stop2
	default:
		return nil, fmt.Errorf("session: unsupported stop bits %d", c.StopBits)
	}

	return &serial.Config{
		Name:        c.Path,
		Baud:        c.Baud,
		Size:        byte(c.DataBits),
		Parity:      parity,
		StopBits:    stop,
		ReadTimeout: c.ReadTimeout,
	}, nil
}

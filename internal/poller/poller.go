// Package poller drives the gauge polling cycle: it queries each configured
// gauge in order, extracts a numeric reading from the reply, and emits one
// CSV record per cycle.
package poller

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackerfriendly/inficon/internal/session"
)

// timeFormat matches the timestamps the CSV log has always carried.
const timeFormat = "2006-01-02 15:04:05.000000"

// readingPattern captures the leading numeric-with-exponent substring of a
// gauge reply, e.g. "1.23-04" out of "1.23-04 MBAR". Deliberately lenient:
// real device replies carry trailing status text.
var readingPattern = regexp.MustCompile(`^(.*-\d+)`)

// ExtractReading returns the reading embedded in payload, or an empty
// string when no reading is present. Absence of a match is not an error.
func ExtractReading(payload string) string {
	m := readingPattern.FindStringSubmatch(payload)
	if m == nil {
		return ""
	}
	return m[1]
}

// Config is the immutable runtime config for the poll loop.
type Config struct {
	Gauges   []string // single digits "0".."9", in output column order
	Interval time.Duration
	Once     bool
}

// Record is one completed poll cycle. It is created fresh each tick,
// serialized, and discarded.
type Record struct {
	At       time.Time
	Readings []string // one per gauge, input order; empty on no reading
}

// Line renders the record as one CSV data line (no trailing newline).
func (r Record) Line() string {
	fields := make([]string, 0, len(r.Readings)+1)
	fields = append(fields, r.At.Format(timeFormat))
	fields = append(fields, r.Readings...)
	return strings.Join(fields, ",")
}

// Poller sequentially queries the configured gauges over a Transport.
type Poller struct {
	cfg       Config
	transport session.Transport
	sink      *Sink
	log       zerolog.Logger

	now func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, transport session.Transport, sink *Sink, log zerolog.Logger) (*Poller, error) {
	if len(cfg.Gauges) == 0 {
		return nil, errors.New("poller: at least one gauge required")
	}
	if cfg.Interval <= 0 && !cfg.Once {
		return nil, errors.New("poller: interval must be > 0")
	}
	return &Poller{
		cfg:       cfg,
		transport: transport,
		sink:      sink,
		log:       log,
		now:       time.Now,
	}, nil
}

// PollOnce performs exactly one poll cycle. Transport faults for a gauge
// yield an empty reading for that column; the cycle always completes.
func (p *Poller) PollOnce() Record {
	rec := Record{
		At:       p.now(),
		Readings: make([]string, 0, len(p.cfg.Gauges)),
	}

	for _, gauge := range p.cfg.Gauges {
		// A failed send is already logged by the session; the receive
		// that follows times out and the column stays empty.
		_ = p.transport.Send("S0" + gauge)

		payload, _ := p.transport.Receive()
		rec.Readings = append(rec.Readings, ExtractReading(payload))
	}

	return rec
}

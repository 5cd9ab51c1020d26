package poller

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeTransport maps commands to canned replies. Commands without a reply
// behave like a silent line: empty payload plus a transport fault.
type fakeTransport struct {
	replies map[string]string
	sent    []string
}

func (f *fakeTransport) Send(cmd string) error {
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeTransport) Receive() (string, error) {
	if len(f.sent) == 0 {
		return "", errors.New("receive before send")
	}
	last := f.sent[len(f.sent)-1]
	reply, ok := f.replies[last]
	if !ok {
		return "", errors.New("sync timeout")
	}
	return reply, nil
}

func TestExtractReading(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"plain reading", "1.23-04", "1.23-04"},
		{"trailing status text", "1.23E-04 OK", "1.23E-04"},
		{"trailing unit", "5.00-03 MBAR", "5.00-03"},
		{"error reply", "ERROR", ""},
		{"empty payload", "", ""},
		{"no exponent", "1.23", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractReading(tt.payload); got != tt.want {
				t.Errorf("ExtractReading(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}

func TestRecord_Line(t *testing.T) {
	rec := Record{
		At:       time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC),
		Readings: []string{"1.23-04", "", "9.99-09"},
	}
	want := "2024-03-01 12:30:45.123456,1.23-04,,9.99-09"
	if got := rec.Line(); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}

func TestNew_Validation(t *testing.T) {
	tr := &fakeTransport{}
	if _, err := New(Config{Interval: time.Second}, tr, nil, zerolog.Nop()); err == nil {
		t.Errorf("New() with no gauges: err=nil, want error")
	}
	if _, err := New(Config{Gauges: []string{"0"}}, tr, nil, zerolog.Nop()); err == nil {
		t.Errorf("New() with no interval: err=nil, want error")
	}
	// One-shot mode does not need an interval.
	if _, err := New(Config{Gauges: []string{"0"}, Once: true}, tr, nil, zerolog.Nop()); err != nil {
		t.Errorf("New() one-shot err=%v", err)
	}
}

func TestPollOnce_AllGaugesHealthy(t *testing.T) {
	tr := &fakeTransport{replies: map[string]string{
		"S00": "1.23-04 MBAR",
		"S01": "5.00-03",
	}}
	p, err := New(Config{Gauges: []string{"0", "1"}, Once: true}, tr, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	rec := p.PollOnce()
	if len(rec.Readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(rec.Readings))
	}
	if rec.Readings[0] != "1.23-04" || rec.Readings[1] != "5.00-03" {
		t.Errorf("Readings = %v", rec.Readings)
	}
	if want := []string{"S00", "S01"}; strings.Join(tr.sent, " ") != strings.Join(want, " ") {
		t.Errorf("sent %v, want %v", tr.sent, want)
	}
}

func TestPollOnce_FaultyGaugeYieldsEmptyField(t *testing.T) {
	// Gauge 1 never answers with a valid frame; its column stays empty
	// and the cycle still completes.
	tr := &fakeTransport{replies: map[string]string{
		"S00": "1.23-04",
		"S02": "3.33-03",
	}}
	p, err := New(Config{Gauges: []string{"0", "1", "2"}, Once: true}, tr, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	rec := p.PollOnce()
	want := []string{"1.23-04", "", "3.33-03"}
	for i := range want {
		if rec.Readings[i] != want[i] {
			t.Errorf("Readings[%d] = %q, want %q", i, rec.Readings[i], want[i])
		}
	}
}

func TestRun_OneShot(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "gauges.csv")

	var console bytes.Buffer
	sink, err := OpenSink(logPath, &console, "datetime,0,1")
	if err != nil {
		t.Fatalf("OpenSink() err=%v", err)
	}
	defer sink.Close()

	tr := &fakeTransport{replies: map[string]string{
		"S00": "1.23-04 MBAR",
		"S01": "5.00-03 MBAR",
	}}
	p, err := New(Config{Gauges: []string{"0", "1"}, Once: true}, tr, sink, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() err=%v", err)
	}

	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("log has %d lines, want header + 1 record: %q", len(lines), lines)
	}
	if lines[0] != "datetime,0,1" {
		t.Errorf("header = %q", lines[0])
	}
	fields := strings.Split(lines[1], ",")
	if len(fields) != 3 {
		t.Fatalf("record has %d fields, want 3: %q", len(fields), lines[1])
	}
	if fields[1] != "1.23-04" || fields[2] != "5.00-03" {
		t.Errorf("record fields = %v", fields[1:])
	}
	// The record is echoed to the console too.
	if !strings.Contains(console.String(), lines[1]) {
		t.Errorf("console missing record echo: %q", console.String())
	}
}

// syncBuffer makes a bytes.Buffer safe to read while Run writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_CancelDuringSleepIsClean(t *testing.T) {
	var console syncBuffer
	sink, err := OpenSink(ConsoleSink, &console, "datetime,0")
	if err != nil {
		t.Fatalf("OpenSink() err=%v", err)
	}

	tr := &fakeTransport{replies: map[string]string{"S00": "1.00-05"}}
	p, err := New(Config{Gauges: []string{"0"}, Interval: time.Hour}, tr, sink, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// Let the first cycle land, then cancel during the sleep.
	deadline := time.After(2 * time.Second)
	for !strings.Contains(console.String(), "1.00-05") {
		select {
		case <-deadline:
			t.Fatalf("first record never arrived: %q", console.String())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() err=%v, want clean exit", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run() did not return after cancel")
	}

	// No partial line was written.
	out := strings.TrimRight(console.String(), "\n")
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			t.Errorf("empty line in console output: %q", out)
		}
	}
}

package poller

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenSink_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	s, err := OpenSink(ConsoleSink, &console, "datetime,0,1")
	if err != nil {
		t.Fatalf("OpenSink() err=%v", err)
	}
	defer s.Close()

	if err := s.WriteRecord("ts,1.0-01,2.0-02"); err != nil {
		t.Fatalf("WriteRecord() err=%v", err)
	}

	want := "datetime,0,1\nts,1.0-01,2.0-02\n"
	if console.String() != want {
		t.Errorf("console = %q, want %q", console.String(), want)
	}
}

func TestOpenSink_FileHeaderWrittenOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.csv")
	header := "datetime,0"

	// First open: empty file gets the header.
	var console bytes.Buffer
	s, err := OpenSink(path, &console, header)
	if err != nil {
		t.Fatalf("OpenSink() err=%v", err)
	}
	if err := s.WriteRecord("r1"); err != nil {
		t.Fatalf("WriteRecord() err=%v", err)
	}
	s.Close()

	// Second open: existing content, header must not be rewritten.
	s, err = OpenSink(path, &console, header)
	if err != nil {
		t.Fatalf("OpenSink() reopen err=%v", err)
	}
	if err := s.WriteRecord("r2"); err != nil {
		t.Fatalf("WriteRecord() err=%v", err)
	}
	s.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := header + "\nr1\nr2\n"
	if string(b) != want {
		t.Errorf("file = %q, want %q", string(b), want)
	}
	if n := strings.Count(string(b), header); n != 1 {
		t.Errorf("header appears %d times, want 1", n)
	}
}

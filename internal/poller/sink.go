package poller

import (
	"fmt"
	"io"
	"os"
)

// ConsoleSink is the log selector value that writes records to the console
// instead of a file.
const ConsoleSink = "STDOUT"

// Sink appends CSV records to the console or to a log file. File records
// are echoed to the console so an attended run still shows progress.
type Sink struct {
	console io.Writer
	file    *os.File // nil for a console-only sink
}

// OpenSink opens the record sink selected by path. ConsoleSink writes to
// console only; anything else is treated as a file to append to. The CSV
// header is written to the console at open, and to the file only when the
// file has no content yet — appending to an existing log never rewrites it.
func OpenSink(path string, console io.Writer, header string) (*Sink, error) {
	s := &Sink{console: console}

	if _, err := fmt.Fprintln(console, header); err != nil {
		return nil, err
	}

	if path == ConsoleSink {
		return s, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.Size() == 0 {
		if _, err := fmt.Fprintln(f, header); err != nil {
			f.Close()
			return nil, err
		}
	}

	s.file = f
	return s, nil
}

// WriteRecord appends one complete CSV line to the sink.
func (s *Sink) WriteRecord(line string) error {
	if _, err := fmt.Fprintln(s.console, line); err != nil {
		return err
	}
	if s.file == nil {
		return nil
	}
	if _, err := fmt.Fprintln(s.file, line); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close releases the log file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

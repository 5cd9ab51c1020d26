// Package frame implements the Inficon wire framing: a start marker,
// a one-byte payload length, the payload, and a one-byte checksum.
package frame

import (
	"errors"
	"fmt"
	"io"
)

// STX marks the beginning of a frame on the wire.
const STX byte = 0x02

// MaxPayload is the largest payload a frame can carry; the length field is
// a single byte.
const MaxPayload = 255

// DefaultRetries bounds the number of single-byte reads spent hunting for
// STX before Decode gives up.
const DefaultRetries = 5

var (
	// ErrCommandTooLong reports a command whose length does not fit in the
	// frame's one-byte length field. Caller contract violation.
	ErrCommandTooLong = errors.New("frame: command exceeds 255 bytes")

	// ErrSyncTimeout reports that no STX was seen within the retry bound.
	ErrSyncTimeout = errors.New("frame: timeout while waiting for STX")

	// ErrLengthMismatch reports a payload shorter than the length byte
	// announced, i.e. the read timed out mid-frame.
	ErrLengthMismatch = errors.New("frame: short payload read")

	// ErrChecksumMismatch reports a payload whose checksum byte does not
	// match the sum of its bytes.
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
)

// Checksum returns the low 8 bits of the sum of the byte values of p.
// Encode applies it to the outgoing command, Decode to the received payload;
// both sides checksum the same logical bytes, so a round trip agrees.
func Checksum(p []byte) byte {
	var sum int
	for _, b := range p {
		sum += int(b)
	}
	return byte(sum & 0xFF)
}

// Encode builds the wire frame STX || len(cmd) || cmd || Checksum(cmd).
func Encode(cmd string) ([]byte, error) {
	if len(cmd) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrCommandTooLong, len(cmd))
	}
	buf := make([]byte, 0, len(cmd)+3)
	buf = append(buf, STX, byte(len(cmd)))
	buf = append(buf, cmd...)
	buf = append(buf, Checksum([]byte(cmd)))
	return buf, nil
}

// Decode consumes exactly one frame from r and returns its payload.
//
// It hunts for STX one byte at a time; every read that does not produce an
// STX counts as one attempt, and running out of attempts yields
// ErrSyncTimeout. Garbage bytes before the STX are consumed and discarded.
// A payload shorter than the announced length yields ErrLengthMismatch; a
// bad checksum yields ErrChecksumMismatch carrying the offending payload.
func Decode(r io.Reader, retries int) (string, error) {
	if retries <= 0 {
		retries = DefaultRetries
	}

	var one [1]byte

	// Skip anything that isn't STX.
	synced := false
	for attempt := 0; attempt < retries; attempt++ {
		// Timeouts surface as a zero-byte read or an error; either way
		// the attempt is spent.
		if n, _ := r.Read(one[:]); n == 1 && one[0] == STX {
			synced = true
			break
		}
	}
	if !synced {
		return "", ErrSyncTimeout
	}

	// Next byte is the payload size.
	if n := readFull(r, one[:]); n != 1 {
		return "", fmt.Errorf("%w: missing length byte", ErrLengthMismatch)
	}
	size := int(one[0])

	// Read size payload bytes, then the checksum. The port's read timeout
	// bounds each read, so a garbled line shows up as a short count here.
	payload := make([]byte, size)
	if n := readFull(r, payload); n != size {
		return "", fmt.Errorf("%w: got %d of %d bytes (%q)", ErrLengthMismatch, n, size, payload[:n])
	}

	if n := readFull(r, one[:]); n != 1 {
		return "", fmt.Errorf("%w: missing checksum byte", ErrLengthMismatch)
	}
	if one[0] != Checksum(payload) {
		return "", fmt.Errorf("%w: payload %q", ErrChecksumMismatch, payload)
	}
	return string(payload), nil
}

// readFull reads into buf until it is full, an error occurs, or a read
// returns no data (a serial timeout). Returns the byte count collected.
func readFull(r io.Reader, buf []byte) int {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil || n == 0 {
			break
		}
	}
	return total
}

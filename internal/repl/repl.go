// Package repl implements the interactive mode: a single-threaded
// request/response loop that sends raw commands and prints whatever the
// controller replies.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hackerfriendly/inficon/internal/session"
)

const prompt = "> "

// Run reads command lines from in until end-of-input or cancellation,
// sends each verbatim with trailing whitespace stripped, and echoes the
// decoded reply (possibly an empty line) to out. Transport faults are
// logged by the session and show up as empty replies; they never end the
// loop. Returns nil on EOF or cancellation.
func Run(ctx context.Context, transport session.Transport, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := fmt.Fprint(out, prompt); err != nil {
			return err
		}
		if !scanner.Scan() {
			// End-of-input is a clean shutdown, not an error.
			fmt.Fprintln(out)
			return scanner.Err()
		}

		cmd := strings.TrimRight(scanner.Text(), " \t\r\n")
		_ = transport.Send(cmd)

		reply, _ := transport.Receive()
		if _, err := fmt.Fprintln(out, reply); err != nil {
			return err
		}
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/hackerfriendly/inficon/internal/cliconfig"
	"github.com/hackerfriendly/inficon/internal/poller"
	"github.com/hackerfriendly/inficon/internal/repl"
	"github.com/hackerfriendly/inficon/internal/session"
)

const helpDescription = `
Poll Inficon vacuum gauge controllers over a serial link and log readings
as CSV, or talk to the controller directly with --interactive.

The default serial port is /dev/ttyUSB0, typically the first USB serial
device. Common alternatives:
  - /dev/ttyS0       (on-board RS232)
  - /dev/ttyAMA0     (Raspberry Pi)
  - /dev/cu.PL2303-* (USB dongles on macOS)

Recoverable serial faults (noise, timeouts, bad checksums) are reported on
stderr and never interrupt polling; the affected reading is left empty.
`

var exampleUsage = strings.TrimSpace(`
  inficon --gauges 0,1 --log /var/log/vacuum.csv
  inficon --port /dev/ttyS0 --baudrate 9600 --oneshot
  inficon --interactive
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "inficon",
		Short:   "Poll Inficon vacuum gauges over a serial link and log readings as CSV",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default ~/.inficon/config.toml),
			// then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (INFICON_*)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Validate before any serial I/O; gauge errors are fatal here.
			if err := cfg.Validate(); err != nil {
				return err
			}

			sess, err := session.Open(session.PortConfig{
				Path:        cfg.Port,
				Baud:        cfg.Baudrate,
				DataBits:    cfg.DataBits,
				Parity:      cfg.Parity,
				StopBits:    cfg.StopBits,
				ReadTimeout: cfg.Timeout,
				SoftFlow:    cfg.SoftFlow,
				HardFlow:    cfg.HardFlow,
			}, log)
			if err != nil {
				return fmt.Errorf("open serial port: %w", err)
			}
			defer sess.Close()

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				cancel()
			}()

			if cfg.Interactive {
				return runInteractive(ctx, sess)
			}

			sink, err := poller.OpenSink(cfg.Log, os.Stdout, "datetime,"+cfg.Gauges)
			if err != nil {
				return err
			}
			defer sink.Close()

			p, err := poller.New(poller.Config{
				Gauges:   cfg.GaugeList,
				Interval: cfg.PollInterval,
				Once:     cfg.Oneshot,
			}, sess, sink, log)
			if err != nil {
				return err
			}
			return p.Run(ctx)
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: ~/.inficon/config.toml)")
	root.Flags().StringVar(&cfg.Port, "port", cfg.Port, "serial port")
	root.Flags().IntVar(&cfg.Baudrate, "baudrate", cfg.Baudrate, "serial baud rate")
	root.Flags().IntVar(&cfg.DataBits, "databits", cfg.DataBits, "data bits")
	root.Flags().StringVar(&cfg.Parity, "parity", cfg.Parity, "parity (N, E or O)")
	root.Flags().IntVar(&cfg.StopBits, "stopbits", cfg.StopBits, "stop bits")
	root.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "serial read timeout")
	root.Flags().BoolVar(&cfg.SoftFlow, "softflow", cfg.SoftFlow, "software flow control")
	root.Flags().BoolVar(&cfg.HardFlow, "hardflow", cfg.HardFlow, "hardware flow control")
	root.Flags().StringVar(&cfg.Log, "log", cfg.Log, "log file to append to (STDOUT writes to the console)")
	root.Flags().BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "interactive mode: prompts for INFICON commands and returns any reply")
	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "time to wait between polls")
	root.Flags().BoolVar(&cfg.Oneshot, "oneshot", cfg.Oneshot, "poll all gauges once and exit")
	root.Flags().StringVar(&cfg.Gauges, "gauges", cfg.Gauges, "comma-separated list of gauges to poll (0-9)")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("inficon")
		os.Exit(1)
	}
}

// runInteractive runs the REPL in its own goroutine so an interrupt during
// a blocking stdin read still terminates cleanly.
func runInteractive(ctx context.Context, sess *session.Session) error {
	done := make(chan error, 1)
	go func() {
		done <- repl.Run(ctx, sess, os.Stdin, os.Stdout)
	}()

	select {
	case <-ctx.Done():
		fmt.Println()
		return nil
	case err := <-done:
		return err
	}
}

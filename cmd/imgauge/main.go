package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/danmuck/imgauge/internal/export"
	"github.com/danmuck/imgauge/internal/journal"
	"github.com/danmuck/imgauge/internal/monitor"
	"github.com/danmuck/imgauge/internal/observability"
	"github.com/danmuck/imgauge/internal/protocol/frame"
	"github.com/danmuck/imgauge/internal/server"
	"github.com/danmuck/imgauge/internal/source"
	"github.com/rs/zerolog"
)

const usage = `usage:
  imgauge decode [-config f] [-verify] [-format json|yaml] [-raw] [file|-]
  imgauge watch  -config f [-port p] [-baud n] [-verify]
  imgauge replay [-format json|yaml] [-raw] journal.cbor
  imgauge config [-output f] [-force] | -validate [-input f]
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "imgauge: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing subcommand\n" + usage)
	}
	logger := observability.InitLogger("imgauge")
	switch args[0] {
	case "decode":
		return runDecode(args[1:], stdin, stdout, logger)
	case "watch":
		return runWatch(args[1:], logger)
	case "replay":
		return runReplay(args[1:], stdout)
	case "config":
		return runConfig(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown subcommand %q\n%s", args[0], usage)
	}
}

func runDecode(args []string, stdin io.Reader, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML config")
	verify := fs.Bool("verify", false, "verify line checksums")
	format := fs.String("format", "", "output format: json or yaml")
	withRaw := fs.Bool("raw", false, "include raw lines in output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := applyDecodeFlags(&cfg, fs, *verify, *format); err != nil {
		return err
	}

	in := stdin
	if path := fs.Arg(0); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	lines, err := source.NewReaderSource(in).ReadBatch(context.Background())
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	dec := frame.NewDecoder(cfg.VerifyChecksum, logger, observability.DecodeObserver{Source: "file"})
	frames, err := dec.Decode(lines)
	if err != nil {
		return err
	}
	return export.NewEncoder(stdout, cfg.Format, *withRaw).Encode(frames)
}

func applyDecodeFlags(cfg *Config, fs *flag.FlagSet, verify bool, format string) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verify":
			cfg.VerifyChecksum = verify
		case "format":
			var parsed export.Format
			parsed, err = export.ParseFormat(format)
			cfg.Format = parsed
		}
	})
	return err
}

func runWatch(args []string, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML config")
	port := fs.String("port", "", "serial port, overrides [serial].port")
	baud := fs.Int("baud", 0, "baud rate, overrides [serial].baud_rate")
	verify := fs.Bool("verify", false, "verify line checksums")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Serial.Port = *port
		case "baud":
			cfg.Serial.BaudRate = *baud
		case "verify":
			cfg.VerifyChecksum = *verify
		}
	})
	if cfg.Serial.Port == "" {
		return errors.New("watch: no serial port configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := source.OpenSerial(cfg.Serial)
	if err != nil {
		return err
	}
	defer src.Close()

	var sinks []monitor.Sink
	if cfg.JournalPath != "" {
		if dir := filepath.Dir(cfg.JournalPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("journal dir: %w", err)
			}
		}
		jw, err := journal.Create(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer jw.Close()
		logger.Info().Str("path", cfg.JournalPath).Str("session", jw.Session().String()).Msg("journal opened")
		sinks = append(sinks, monitor.SinkFunc(func(_ context.Context, frames []frame.Frame) error {
			return jw.Append(frames...)
		}))
	}

	var serve func(context.Context) error
	if cfg.MetricsAddr != "" {
		srv := server.New("imgauge", cfg.MetricsAddr, cfg.CORSOrigins, logger)
		sinks = append(sinks, srv)
		serve = srv.Serve
	} else {
		observability.RegisterMetrics()
	}

	dec := frame.NewDecoder(cfg.VerifyChecksum, logger, observability.DecodeObserver{Source: "serial"})
	mon := monitor.New(src, dec, cfg.PollInterval, logger, sinks...)
	logger.Info().
		Str("port", cfg.Serial.Port).
		Int("baud", cfg.Serial.BaudRate).
		Dur("poll", cfg.PollInterval).
		Bool("verify", cfg.VerifyChecksum).
		Msg("watching")

	return supervise(ctx, mon.Run, serve, logger)
}

// supervise runs the capture loop alongside the optional HTTP server. A
// server failure stops the capture and is returned; a nil serve runs the
// capture alone.
func supervise(ctx context.Context, run, serve func(context.Context) error, logger zerolog.Logger) error {
	if serve == nil {
		return run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		err := serve(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("http server failed, stopping capture")
			cancel()
		}
		serveErr <- err
	}()

	runErr := run(ctx)
	cancel()
	if err := <-serveErr; err != nil && runErr == nil {
		runErr = fmt.Errorf("http server: %w", err)
	}
	return runErr
}

func runReplay(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	format := fs.String("format", string(export.FormatJSON), "output format: json or yaml")
	withRaw := fs.Bool("raw", false, "include raw lines in output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("replay: expected one journal path")
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}

	entries, err := journal.ReadAll(fs.Arg(0))
	if err != nil {
		return err
	}
	frames := make([]frame.Frame, 0, len(entries))
	for _, e := range entries {
		frames = append(frames, e.Frame)
	}
	return export.NewEncoder(stdout, f, *withRaw).Encode(frames)
}

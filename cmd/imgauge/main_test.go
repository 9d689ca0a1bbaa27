package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/imgauge/internal/journal"
	"github.com/danmuck/imgauge/internal/protocol"
	"github.com/danmuck/imgauge/internal/protocol/frame"
	"github.com/danmuck/imgauge/internal/server"
	"github.com/rs/zerolog"
)

const capture = "ST\t01\r\n" +
	"SE\tIM6120-0042\t2.10\r\n" +
	"DA\t2014/08/12\t10:21:05\r\n" +
	"MS\tFLANGE-A\r\n" +
	"LO\t1\r\n" +
	"CH\t1\r\n" +
	"IT\t1\t10,002\tmm\tDiameter\t10,000\t0,050\t-0,050\tOK\t0\r\n" +
	"EN\r\n"

func TestRunDecodeJSON(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"decode", "-"}, strings.NewReader(capture), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var frames []struct {
		ProgramName  string `json:"program_name"`
		Measurements []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"measurements"`
	}
	if err := json.Unmarshal(out.Bytes(), &frames); err != nil {
		t.Fatalf("unmarshal output: %v\n%s", err, out.String())
	}
	if len(frames) != 1 || frames[0].ProgramName != "FLANGE-A" {
		t.Fatalf("unexpected frames: %+v", frames)
	}
	if len(frames[0].Measurements) != 1 || frames[0].Measurements[0].Status != "ok" {
		t.Fatalf("unexpected measurements: %+v", frames[0].Measurements)
	}
}

func TestRunDecodeYAML(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"decode", "-format", "yaml"}, strings.NewReader(capture), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.String(), "program_name: FLANGE-A") {
		t.Fatalf("unexpected yaml output:\n%s", out.String())
	}
}

func TestRunDecodeVerifyRejectsUnsealedInput(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"decode", "-verify"}, strings.NewReader(capture), &out)
	if !errors.Is(err, protocol.ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output on failure, got %q", out.String())
	}
}

func TestRunDecodeEmptyInput(t *testing.T) {
	err := run([]string{"decode"}, strings.NewReader(""), &bytes.Buffer{})
	if !errors.Is(err, protocol.ErrEmptyInput) {
		t.Fatalf("expected empty input, got %v", err)
	}
}

func TestRunReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.cbor")
	w, err := journal.Create(path)
	if err != nil {
		t.Fatalf("create journal: %v", err)
	}
	if err := w.Append(frame.Frame{ProgramName: "FLANGE-A"}, frame.Frame{ProgramName: "FLANGE-B"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var out bytes.Buffer
	if err := run([]string{"replay", path}, nil, &out); err != nil {
		t.Fatalf("replay: %v", err)
	}
	var frames []struct {
		ProgramName string `json:"program_name"`
	}
	if err := json.Unmarshal(out.Bytes(), &frames); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(frames) != 2 || frames[1].ProgramName != "FLANGE-B" {
		t.Fatalf("unexpected frames: %+v", frames)
	}
}

func TestRunRejectsUnknownSubcommand(t *testing.T) {
	if err := run([]string{"bogus"}, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error")
	}
	if err := run(nil, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for missing subcommand")
	}
	if err := run([]string{"watch"}, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for watch without port")
	}
}

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestSuperviseStopsCaptureWhenServerFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	srv := server.New("imgauge-test", ln.Addr().String(), nil, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- supervise(context.Background(), blockUntilDone, srv.Serve, zerolog.Nop()) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "http server") {
			t.Fatalf("expected http server error, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("capture kept running after the server failed")
	}
}

func TestSuperviseReturnsCaptureError(t *testing.T) {
	want := errors.New("port gone")
	run := func(context.Context) error { return want }
	err := supervise(context.Background(), run, blockUntilDone, zerolog.Nop())
	if !errors.Is(err, want) {
		t.Fatalf("expected capture error, got %v", err)
	}
}

func TestSuperviseWithoutServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := supervise(ctx, blockUntilDone, nil, zerolog.Nop()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
}

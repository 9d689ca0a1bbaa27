package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/imgauge/internal/measure"
	"github.com/danmuck/imgauge/internal/protocol/frame"
	"github.com/danmuck/imgauge/internal/testutil/testlog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	testlog.Start(t)
	s := New("imgauge-test", "127.0.0.1:0", nil, zerolog.Nop())
	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "imgauge-test", body["service"])
}

func TestLatestFrames(t *testing.T) {
	testlog.Start(t)
	s := New("imgauge-test", "127.0.0.1:0", []string{"http://localhost:3000", ""}, zerolog.Nop())

	rec := get(t, s, "/frames/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f := frame.Frame{
		ProgramName: "FLANGE-A",
		Measurements: []measure.Measurement{
			{Design: 10, Lower: -0.05, Upper: 0.05, Item: 10.2, Name: "#1 Diameter", Index: 1},
		},
		RawLines: []string{"ST\t01", "EN"},
	}
	require.NoError(t, s.Publish(context.Background(), []frame.Frame{f}))

	rec = get(t, s, "/frames/latest?raw=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Sequence uint64 `json:"sequence"`
		Frames   []struct {
			ProgramName    string   `json:"program_name"`
			OutOfTolerance int      `json:"out_of_tolerance"`
			RawLines       []string `json:"raw_lines"`
		} `json:"frames"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.Sequence)
	require.Len(t, body.Frames, 1)
	assert.Equal(t, "FLANGE-A", body.Frames[0].ProgramName)
	assert.Equal(t, 1, body.Frames[0].OutOfTolerance)
	assert.Len(t, body.Frames[0].RawLines, 2)
}

func TestMetricsEndpoint(t *testing.T) {
	testlog.Start(t)
	s := New("imgauge-test", "127.0.0.1:0", nil, zerolog.Nop())
	get(t, s, "/health")
	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "imgauge_http_requests_total")
}

func TestServeStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	s := New("imgauge-test", "127.0.0.1:0", nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

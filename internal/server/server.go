// Package server exposes a running capture over HTTP: health, Prometheus
// metrics, and the most recently decoded frames.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/danmuck/imgauge/internal/observability"
	"github.com/danmuck/imgauge/internal/protocol/frame"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	ID       string
	Addr     string
	Appeared time.Time

	router *gin.Engine
	logger zerolog.Logger

	mu        sync.RWMutex
	latest    []frame.Frame
	updatedAt time.Time
	published uint64
}

func New(id, addr string, corsOrigins []string, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware(id))
	if origins := normalizeOrigins(corsOrigins); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:       id,
		Addr:     addr,
		Appeared: time.Now(),
		router:   r,
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Publish replaces the latest batch. It satisfies monitor.Sink.
func (s *Server) Publish(_ context.Context, frames []frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = frames
	s.updatedAt = time.Now()
	s.published++
	return nil
}

func (s *Server) snapshot() ([]frame.Frame, time.Time, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.updatedAt, s.published
}

// Serve listens on Addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("id", s.ID).Str("addr", s.Addr).Msg("http server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info().Str("id", s.ID).Msg("http server stopped")
		return nil
	}
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

package server

import (
	"net/http"
	"time"

	"github.com/danmuck/imgauge/internal/export"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/frames/latest", func(c *gin.Context) {
		frames, updatedAt, seq := s.snapshot()
		if seq == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no frame decoded yet"})
			return
		}
		withRaw := c.Query("raw") == "1" || c.Query("raw") == "true"
		views := make([]export.FrameView, 0, len(frames))
		for _, f := range frames {
			views = append(views, export.View(f, withRaw))
		}
		c.JSON(http.StatusOK, gin.H{
			"sequence":   seq,
			"updated_at": updatedAt.UTC().Format(time.RFC3339Nano),
			"frames":     views,
		})
	})
}

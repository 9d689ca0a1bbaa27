package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/imgauge/internal/protocol/frame"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imgauge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imgauge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	decodeBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imgauge",
			Subsystem: "decode",
			Name:      "batches_total",
			Help:      "Decoded line batches by result.",
		},
		[]string{"source", "result"},
	)
	decodeFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imgauge",
			Subsystem: "decode",
			Name:      "frames_total",
			Help:      "Frames decoded successfully.",
		},
		[]string{"source"},
	)
	decodeMeasurements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imgauge",
			Subsystem: "decode",
			Name:      "measurements_total",
			Help:      "Measurements decoded, by tolerance status.",
		},
		[]string{"source", "status"},
	)
	decodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imgauge",
			Subsystem: "decode",
			Name:      "duration_seconds",
			Help:      "Batch decode duration in seconds.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
		[]string{"source"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			decodeBatches, decodeFrames, decodeMeasurements, decodeDuration,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDecode records one decoder outcome. Empty batches are counted under
// result "empty" and do not touch frame counters.
func RecordDecode(source string, out frame.Outcome) {
	RegisterMetrics()
	result := out.Reason
	if result == "" {
		result = "ok"
	}
	decodeBatches.WithLabelValues(source, result).Inc()
	decodeDuration.WithLabelValues(source).Observe(out.Duration.Seconds())
	if out.Frames == 0 {
		return
	}
	decodeFrames.WithLabelValues(source).Add(float64(out.Frames))
	decodeMeasurements.WithLabelValues(source, "ok").Add(float64(out.Measurements - out.OutOfTolerance))
	decodeMeasurements.WithLabelValues(source, "ng").Add(float64(out.OutOfTolerance))
}

// DecodeObserver adapts RecordDecode to frame.Observer.
type DecodeObserver struct {
	Source string
}

func (o DecodeObserver) ObserveDecode(out frame.Outcome) {
	RecordDecode(o.Source, out)
}

var _ frame.Observer = DecodeObserver{}

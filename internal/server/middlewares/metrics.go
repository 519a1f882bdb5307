package middlewares

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-page/pkg/telemetry"
	"go.uber.org/zap"
)

const maxDurationSamples = 1000

// HTTPSnapshot is a point-in-time copy of the request counters.
type HTTPSnapshot struct {
	RequestsTotal      map[string]int64
	AvgDurationSeconds float64
	ActiveRequests     int64
}

type MetricsMiddleware struct {
	logger *zap.Logger
	tele   *telemetry.Telemetry

	mutex            sync.RWMutex
	requestsTotal    map[string]int64
	requestDurations []float64
	activeRequests   int64
}

func NewMetricsMiddleware(logger *zap.Logger, tele *telemetry.Telemetry) *MetricsMiddleware {
	return &MetricsMiddleware{
		logger:           logger,
		tele:             tele,
		requestsTotal:    make(map[string]int64),
		requestDurations: make([]float64, 0, maxDurationSamples),
	}
}

func (m *MetricsMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mutex.Lock()
		m.activeRequests++
		m.mutex.Unlock()

		c.Next()

		duration := time.Since(start).Seconds()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		key := c.Request.Method + " " + route + "_" + strconv.Itoa(c.Writer.Status())

		m.mutex.Lock()
		m.requestsTotal[key]++
		m.requestDurations = append(m.requestDurations, duration)
		m.activeRequests--
		if len(m.requestDurations) > maxDurationSamples {
			m.requestDurations = m.requestDurations[len(m.requestDurations)-maxDurationSamples:]
		}
		m.mutex.Unlock()

		if m.tele.IsEnabled() {
			m.logger.Debug("HTTP metrics recorded",
				zap.String("key", key),
				zap.Float64("duration", duration))
		}
	}
}

func (m *MetricsMiddleware) Snapshot() HTTPSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	totals := make(map[string]int64, len(m.requestsTotal))
	for k, v := range m.requestsTotal {
		totals[k] = v
	}

	var avg float64
	if len(m.requestDurations) > 0 {
		sum := 0.0
		for _, d := range m.requestDurations {
			sum += d
		}
		avg = sum / float64(len(m.requestDurations))
	}

	return HTTPSnapshot{
		RequestsTotal:      totals,
		AvgDurationSeconds: avg,
		ActiveRequests:     m.activeRequests,
	}
}

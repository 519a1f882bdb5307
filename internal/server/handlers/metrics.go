package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-page/internal/server/middlewares"
	"go.uber.org/zap"
)

// HTTPMetricsProvider exposes the request counters kept by the middleware.
type HTTPMetricsProvider interface {
	Snapshot() middlewares.HTTPSnapshot
}

// MetricsHandler counts upstream calls made by the orchestrator and serves
// them, together with the HTTP counters, in Prometheus text format.
type MetricsHandler struct {
	logger *zap.Logger
	http   HTTPMetricsProvider

	mutex          sync.RWMutex
	upstreamCalls  map[string]int64
	upstreamErrors map[string]int64
	superseded     int64
}

func NewMetricsHandler(logger *zap.Logger, httpMetrics HTTPMetricsProvider) *MetricsHandler {
	return &MetricsHandler{
		logger:         logger,
		http:           httpMetrics,
		upstreamCalls:  make(map[string]int64),
		upstreamErrors: make(map[string]int64),
	}
}

// RecordUpstreamCall records one weather, forecast or photo call
func (h *MetricsHandler) RecordUpstreamCall(ctx context.Context, step string, success bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.upstreamCalls[step]++
	if !success {
		h.upstreamErrors[step]++
	}
}

// RecordSuperseded records a fetch result dropped for being stale
func (h *MetricsHandler) RecordSuperseded(ctx context.Context) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.superseded++
}

func writeCounterFamily(b *strings.Builder, name, help, label string, values map[string]int64) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s counter\n", name, help, name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
	b.WriteString("\n")
}

func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	var b strings.Builder

	if h.http != nil {
		snap := h.http.Snapshot()
		writeCounterFamily(&b, "http_requests_total", "Total number of HTTP requests", "route_status", snap.RequestsTotal)

		fmt.Fprintf(&b, "# HELP http_request_duration_seconds_avg Average duration of HTTP requests\n")
		fmt.Fprintf(&b, "# TYPE http_request_duration_seconds_avg gauge\n")
		fmt.Fprintf(&b, "http_request_duration_seconds_avg %.6f\n\n", snap.AvgDurationSeconds)

		fmt.Fprintf(&b, "# HELP http_active_requests Number of active HTTP requests\n")
		fmt.Fprintf(&b, "# TYPE http_active_requests gauge\n")
		fmt.Fprintf(&b, "http_active_requests %d\n\n", snap.ActiveRequests)
	}

	h.mutex.RLock()
	writeCounterFamily(&b, "upstream_calls_total", "Total provider calls by fetch step", "step", h.upstreamCalls)
	writeCounterFamily(&b, "upstream_errors_total", "Total failed provider calls by fetch step", "step", h.upstreamErrors)
	fmt.Fprintf(&b, "# HELP fetch_superseded_total Fetch results dropped because a newer fetch started\n")
	fmt.Fprintf(&b, "# TYPE fetch_superseded_total counter\n")
	fmt.Fprintf(&b, "fetch_superseded_total %d\n", h.superseded)
	h.mutex.RUnlock()

	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

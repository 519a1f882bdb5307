package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/internal/orchestrator"
	"github.com/vzahanych/weather-page/internal/server/handlers"
	"github.com/vzahanych/weather-page/internal/server/middlewares"
	"github.com/vzahanych/weather-page/pkg/telemetry"
	"go.uber.org/zap"
)

type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	server *http.Server
	page   *orchestrator.Orchestrator
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

// NewServer wires the HTTP surface around page. The metrics handler becomes
// the page's metrics recorder.
func NewServer(cfg *config.Config, page *orchestrator.Orchestrator, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	httpMetrics := middlewares.NewMetricsMiddleware(logger, tele)

	engine.Use(middlewares.RequestIDMiddleware(logger))
	engine.Use(middlewares.LoggingMiddleware(logger, "/health", "/metrics"))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(httpMetrics.Handler())

	s := &Server{
		cfg:    cfg,
		engine: engine,
		page:   page,
		logger: logger,
		tele:   tele,
	}

	metrics := handlers.NewMetricsHandler(logger, httpMetrics)
	page.SetMetricsRecorder(metrics)

	s.setupRoutes(metrics)

	return s
}

func (s *Server) setupRoutes(metrics *handlers.MetricsHandler) {
	page := handlers.NewPageHandler(s.page, s.logger)

	// Page endpoints
	s.engine.POST("/search", page.Search)
	s.engine.PUT("/units", page.SetUnits)
	s.engine.GET("/state", page.State)
	s.engine.GET("/chart", page.Chart)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, s.providersConfigured)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", metrics.ServeMetrics)
}

func (s *Server) providersConfigured() bool {
	return s.cfg.Providers.WeatherAPIKey != "" && s.cfg.Providers.PhotoAPIAccessKey != ""
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	srv := s.cfg.Server

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", srv.Host, srv.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(srv.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(srv.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(srv.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-page/internal/chart"
	"github.com/vzahanych/weather-page/internal/display"
	"github.com/vzahanych/weather-page/internal/orchestrator"
	"github.com/vzahanych/weather-page/internal/server/utils"
	"github.com/vzahanych/weather-page/internal/weather"
	"go.uber.org/zap"
)

type PageHandler struct {
	page   *orchestrator.Orchestrator
	logger *zap.Logger
}

func NewPageHandler(page *orchestrator.Orchestrator, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		page:   page,
		logger: logger,
	}
}

// fetchContext keeps the trace but not the cancellation: a client that hangs
// up must not turn the shared page into an error.
func fetchContext(c *gin.Context) context.Context {
	return context.WithoutCancel(utils.GetContextFromGinContext(c))
}

func (h *PageHandler) Search(c *gin.Context) {
	requestID := utils.GetRequestIDFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", requestID))

	var req SearchRequest
	if !h.bind(c, reqLogger, &req) {
		return
	}

	reqLogger.Info("Processing search request",
		zap.String("location", req.Location),
		zap.String("units", req.Units))

	var (
		state orchestrator.ViewState
		err   error
	)
	if req.Units != "" {
		units, _ := weather.ParseUnitSystem(req.Units)
		state, err = h.page.Fetch(fetchContext(c), req.Location, units)
	} else {
		state, err = h.page.Search(fetchContext(c), req.Location)
	}

	h.respond(c, reqLogger, state, err)
}

func (h *PageHandler) SetUnits(c *gin.Context) {
	requestID := utils.GetRequestIDFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", requestID))

	var req UnitsRequest
	if !h.bind(c, reqLogger, &req) {
		return
	}

	units, _ := weather.ParseUnitSystem(req.Units)
	reqLogger.Info("Switching unit system", zap.String("units", units.String()))

	state, err := h.page.SetUnits(fetchContext(c), units)
	h.respond(c, reqLogger, state, err)
}

func (h *PageHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, display.BuildPage(h.page.State()))
}

func (h *PageHandler) Chart(c *gin.Context) {
	state := h.page.State()
	if state.Result == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "No forecast loaded",
			Code:  "NO_FORECAST",
		})
		return
	}

	compact := c.Query("compact") == "true"

	var buf bytes.Buffer
	err := chart.RenderTemperatureTrend(&buf, state.Result.Forecast, state.Result.Units, compact)
	if errors.Is(err, chart.ErrNoForecast) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Forecast has no noon or midnight entries",
			Code:  "NO_FORECAST",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to render chart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to render chart",
			Code:    "CHART_ERROR",
			Details: err.Error(),
		})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PageHandler) bind(c *gin.Context, reqLogger *zap.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		reqLogger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return false
	}

	if fields := utils.ValidateStruct(req); len(fields) > 0 {
		reqLogger.Warn("Request failed validation", zap.Any("fields", fields))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid request parameters",
			Code:   "INVALID_PARAMS",
			Fields: fields,
		})
		return false
	}

	return true
}

func (h *PageHandler) respond(c *gin.Context, reqLogger *zap.Logger, state orchestrator.ViewState, err error) {
	switch {
	case err == nil:
		reqLogger.Info("Page refreshed", zap.String("location", state.Location))
		c.JSON(http.StatusOK, display.BuildPage(state))
	case errors.Is(err, orchestrator.ErrEmptyLocation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Location is required",
			Code:  "INVALID_PARAMS",
		})
	case errors.Is(err, orchestrator.ErrSuperseded):
		reqLogger.Info("Request superseded by a newer one")
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "A newer request replaced this one",
			Code:  "SUPERSEDED",
		})
	default:
		reqLogger.Warn("Upstream provider failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   state.ErrorMessage,
			Code:    "UPSTREAM_ERROR",
			Details: err.Error(),
		})
	}
}

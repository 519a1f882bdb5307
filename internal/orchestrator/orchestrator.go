// Package orchestrator owns the page state and runs the weather, forecast
// and cover photo calls that refresh it.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/internal/photo"
	"github.com/vzahanych/weather-page/internal/weather"
	"github.com/vzahanych/weather-page/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	ErrEmptyLocation = errors.New("location is required")
	// ErrSuperseded is returned by a fetch whose result was dropped because
	// a newer fetch started while it was in flight.
	ErrSuperseded = errors.New("superseded by a newer request")
)

type WeatherProvider interface {
	Current(ctx context.Context, location string, units weather.UnitSystem) (*weather.Snapshot, error)
	Forecast(ctx context.Context, location string, units weather.UnitSystem) (*weather.Forecast, error)
}

type PhotoSearcher interface {
	SearchCover(ctx context.Context, query string) (string, error)
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordUpstreamCall(ctx context.Context, step string, success bool)
	RecordSuperseded(ctx context.Context)
}

type Orchestrator struct {
	weather WeatherProvider
	photos  PhotoSearcher
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics MetricsRecorder

	mu    sync.Mutex
	seq   uint64
	state *ViewState
}

// New builds the provider clients from cfg. The page starts empty with the
// given unit system selected.
func New(cfg config.ProvidersConfig, units weather.UnitSystem, logger *zap.Logger, tele *telemetry.Telemetry) *Orchestrator {
	return NewWithProviders(
		weather.NewClientWithConfig(cfg, logger),
		photo.NewClientWithConfig(cfg, logger),
		units, logger, tele,
	)
}

func NewWithProviders(w WeatherProvider, p PhotoSearcher, units weather.UnitSystem, logger *zap.Logger, tele *telemetry.Telemetry) *Orchestrator {
	return &Orchestrator{
		weather: w,
		photos:  p,
		logger:  logger,
		tele:    tele,
		state:   initialState(units),
	}
}

// SetMetricsRecorder sets the metrics recorder for the orchestrator
func (o *Orchestrator) SetMetricsRecorder(metrics MetricsRecorder) {
	o.metrics = metrics
}

// State returns the current page.
func (o *Orchestrator) State() ViewState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return *o.state
}

// Search fetches location with the currently selected unit system.
func (o *Orchestrator) Search(ctx context.Context, location string) (ViewState, error) {
	return o.Fetch(ctx, location, o.State().Units)
}

// SetUnits selects a unit system and refetches the current location, if any.
func (o *Orchestrator) SetUnits(ctx context.Context, units weather.UnitSystem) (ViewState, error) {
	o.mu.Lock()
	location := o.state.Location
	if location == "" {
		next := *o.state
		next.Units = units
		o.state = &next
		o.mu.Unlock()
		return next, nil
	}
	o.mu.Unlock()

	return o.Fetch(ctx, location, units)
}

// Fetch runs the current weather, forecast and cover photo calls in that
// order and publishes the outcome as a whole new ViewState. Any failure
// discards everything fetched so far. If another Fetch starts before this one
// finishes, this one's outcome is dropped and ErrSuperseded is returned.
func (o *Orchestrator) Fetch(ctx context.Context, location string, units weather.UnitSystem) (ViewState, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return o.State(), ErrEmptyLocation
	}

	tracer := o.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "orchestrator.Fetch")
	defer span.End()

	seq := o.begin(location, units)

	span.SetAttributes(
		attribute.String("location", location),
		attribute.String("units", units.String()),
		attribute.Int64("seq", int64(seq)),
	)

	log := o.logger.With(
		zap.Uint64("seq", seq),
		zap.String("location", location),
		zap.String("units", units.String()))
	log.Info("Fetch started")

	result, fetchErr := o.fetchAll(ctx, location, units)

	next := ViewState{
		Location: location,
		Units:    units,
	}
	if fetchErr != nil {
		next.ErrorMessage = userMessage(fetchErr)
	} else {
		next.Result = result
	}

	state, ok := o.commit(seq, next)
	if !ok {
		span.SetAttributes(attribute.Bool("superseded", true))
		if o.metrics != nil {
			o.metrics.RecordSuperseded(ctx)
		}
		log.Info("Discarding superseded fetch result", zap.Bool("failed", fetchErr != nil))
		return state, ErrSuperseded
	}

	if fetchErr != nil {
		span.SetAttributes(attribute.Bool("success", false))
		log.Warn("Fetch failed",
			zap.String("error_message", next.ErrorMessage),
			zap.Error(fetchErr))
		return state, fetchErr
	}

	entries := 0
	if result.Forecast != nil {
		entries = len(result.Forecast.List)
	}

	span.SetAttributes(attribute.Bool("success", true))
	log.Info("Fetch completed",
		zap.Int("forecast_entries", entries),
		zap.Bool("has_cover", result.CoverImageURL != ""))

	return state, nil
}

// begin records the new inputs, marks the page loading and returns the
// sequence number that identifies this invocation.
func (o *Orchestrator) begin(location string, units weather.UnitSystem) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.seq++
	next := *o.state
	next.Location = location
	next.Units = units
	next.IsLoading = true
	o.state = &next

	return o.seq
}

// commit publishes next only if seq is still the latest invocation.
func (o *Orchestrator) commit(seq uint64, next ViewState) (ViewState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if seq != o.seq {
		return *o.state, false
	}

	next.IsLoading = false
	o.state = &next
	return next, true
}

func (o *Orchestrator) fetchAll(ctx context.Context, location string, units weather.UnitSystem) (*Result, error) {
	var (
		snapshot *weather.Snapshot
		forecast *weather.Forecast
		cover    string
	)

	err := o.step(ctx, "weather", func(ctx context.Context) error {
		var err error
		snapshot, err = o.weather.Current(ctx, location, units)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = o.step(ctx, "forecast", func(ctx context.Context) error {
		var err error
		forecast, err = o.weather.Forecast(ctx, location, units)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = o.step(ctx, "photo", func(ctx context.Context) error {
		var err error
		cover, err = o.photos.SearchCover(ctx, location)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Location:      location,
		Units:         units,
		Weather:       snapshot,
		Forecast:      forecast,
		CoverImageURL: cover,
	}, nil
}

func (o *Orchestrator) step(ctx context.Context, name string, call func(ctx context.Context) error) error {
	ctx, span := o.tele.GetTracer().Start(ctx, "orchestrator."+name)
	defer span.End()

	err := call(ctx)

	if o.metrics != nil {
		o.metrics.RecordUpstreamCall(ctx, name, err == nil)
	}

	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		o.tele.RecordError(ctx, err, map[string]interface{}{"step": name})
		return fmt.Errorf("%s call failed: %w", name, err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return nil
}

// userMessage prefers the provider's own error text.
func userMessage(err error) string {
	if msg, ok := weather.ErrorMessage(err); ok {
		return msg
	}

	var photoErr *photo.APIError
	if errors.As(err, &photoErr) {
		return photoErr.Message
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "request cancelled before the providers answered"
	}

	return err.Error()
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-page/internal/photo"
	"github.com/vzahanych/weather-page/internal/weather"
	"github.com/vzahanych/weather-page/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

// fakeProviders serves deterministic data keyed by location and records
// every call in order. A location with a gate blocks its weather call until
// the gate is closed.
type fakeProviders struct {
	mu      sync.Mutex
	calls   []string
	gates   map[string]chan struct{}
	started map[string]chan struct{}

	weatherErr  map[string]error
	forecastErr map[string]error
	photoErr    map[string]error
	covers      map[string]string
}

func newFakeProviders() *fakeProviders {
	return &fakeProviders{
		gates:       make(map[string]chan struct{}),
		started:     make(map[string]chan struct{}),
		weatherErr:  make(map[string]error),
		forecastErr: make(map[string]error),
		photoErr:    make(map[string]error),
		covers:      make(map[string]string),
	}
}

func (f *fakeProviders) gate(location string) (release func(), started <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	s := make(chan struct{})
	f.gates[location] = g
	f.started[location] = s
	return func() { close(g) }, s
}

func (f *fakeProviders) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeProviders) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProviders) Current(ctx context.Context, location string, units weather.UnitSystem) (*weather.Snapshot, error) {
	f.record(fmt.Sprintf("weather:%s:%s", location, units))

	f.mu.Lock()
	g, s := f.gates[location], f.started[location]
	err := f.weatherErr[location]
	f.mu.Unlock()

	if g != nil {
		close(s)
		<-g
	}
	if err != nil {
		return nil, err
	}

	temp := 20.0
	if units == weather.Imperial {
		temp = 68
	}
	return &weather.Snapshot{Name: location, Main: weather.MainFigures{Temp: temp}}, nil
}

func (f *fakeProviders) Forecast(ctx context.Context, location string, units weather.UnitSystem) (*weather.Forecast, error) {
	f.record(fmt.Sprintf("forecast:%s:%s", location, units))

	f.mu.Lock()
	err := f.forecastErr[location]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &weather.Forecast{
		City: weather.City{Name: location},
		List: []weather.ForecastEntry{{DtTxt: "2024-05-01 12:00:00"}},
	}, nil
}

func (f *fakeProviders) SearchCover(ctx context.Context, query string) (string, error) {
	f.record("photo:" + query)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.photoErr[query]; err != nil {
		return "", err
	}
	return f.covers[query], nil
}

type countingMetrics struct {
	mu         sync.Mutex
	calls      map[string]int
	failures   map[string]int
	superseded int
}

func (m *countingMetrics) RecordUpstreamCall(ctx context.Context, step string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[step]++
	if !success {
		m.failures[step]++
	}
}

func (m *countingMetrics) RecordSuperseded(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.superseded++
}

func newTestOrchestrator(t *testing.T, fake *fakeProviders) *Orchestrator {
	return NewWithProviders(fake, fake, weather.Metric, zaptest.NewLogger(t), &telemetry.Telemetry{})
}

func TestFetch_Success(t *testing.T) {
	fake := newFakeProviders()
	fake.covers["Lisbon"] = "https://img.example/lisbon.jpg"
	o := newTestOrchestrator(t, fake)

	state, err := o.Fetch(context.Background(), "  Lisbon ", weather.Metric)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"weather:Lisbon:metric",
		"forecast:Lisbon:metric",
		"photo:Lisbon",
	}, fake.Calls())

	assert.Equal(t, "Lisbon", state.Location)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.ErrorMessage)
	require.NotNil(t, state.Result)
	assert.Equal(t, "Lisbon", state.Result.Location)
	assert.Equal(t, weather.Metric, state.Result.Units)
	assert.Equal(t, "Lisbon", state.Result.Weather.Name)
	assert.Equal(t, "Lisbon", state.Result.Forecast.City.Name)
	assert.Equal(t, "https://img.example/lisbon.jpg", state.Result.CoverImageURL)

	assert.Equal(t, state, o.State())
}

func TestFetch_EmptyLocation(t *testing.T) {
	fake := newFakeProviders()
	o := newTestOrchestrator(t, fake)

	state, err := o.Fetch(context.Background(), "   ", weather.Metric)
	assert.ErrorIs(t, err, ErrEmptyLocation)
	assert.Empty(t, fake.Calls())
	assert.False(t, state.IsLoading)
	assert.Nil(t, state.Result)
}

func TestFetch_WeatherNotFound(t *testing.T) {
	fake := newFakeProviders()
	fake.weatherErr["Atlantis"] = &weather.APIError{StatusCode: 404, Message: "city not found"}
	o := newTestOrchestrator(t, fake)

	_, err := o.Fetch(context.Background(), "Lisbon", weather.Metric)
	require.NoError(t, err)

	state, err := o.Fetch(context.Background(), "Atlantis", weather.Metric)
	require.Error(t, err)

	var apiErr *weather.APIError
	assert.True(t, errors.As(err, &apiErr))

	assert.Equal(t, "city not found", state.ErrorMessage)
	assert.Nil(t, state.Result)
	assert.False(t, state.IsLoading)
	assert.Equal(t, "Atlantis", state.Location)

	// the failed invocation stops after the first call
	assert.Equal(t, "weather:Atlantis:metric", fake.Calls()[len(fake.Calls())-1])
}

func TestFetch_ForecastFailureDiscardsWeather(t *testing.T) {
	fake := newFakeProviders()
	fake.forecastErr["Oslo"] = &weather.APIError{StatusCode: 429, Message: "rate limit exceeded"}
	o := newTestOrchestrator(t, fake)

	state, err := o.Fetch(context.Background(), "Oslo", weather.Metric)
	require.Error(t, err)

	assert.Equal(t, "rate limit exceeded", state.ErrorMessage)
	assert.Nil(t, state.Result)
	assert.Equal(t, []string{"weather:Oslo:metric", "forecast:Oslo:metric"}, fake.Calls())
}

func TestFetch_PhotoFailureFailsWholeFetch(t *testing.T) {
	fake := newFakeProviders()
	fake.photoErr["Oslo"] = &photo.APIError{StatusCode: 401, Message: "OAuth error: The access token is invalid"}
	o := newTestOrchestrator(t, fake)

	state, err := o.Fetch(context.Background(), "Oslo", weather.Metric)
	require.Error(t, err)

	assert.Equal(t, "OAuth error: The access token is invalid", state.ErrorMessage)
	assert.Nil(t, state.Result)
}

func TestFetch_NoCoverIsDegradedSuccess(t *testing.T) {
	fake := newFakeProviders()
	o := newTestOrchestrator(t, fake)

	state, err := o.Fetch(context.Background(), "Smallville", weather.Metric)
	require.NoError(t, err)

	require.NotNil(t, state.Result)
	assert.Empty(t, state.Result.CoverImageURL)
	assert.NotNil(t, state.Result.Weather)
	assert.NotNil(t, state.Result.Forecast)
}

func TestFetch_TransportErrorMessage(t *testing.T) {
	fake := newFakeProviders()
	fake.weatherErr["Lima"] = errors.New("dial tcp: connection refused")
	o := newTestOrchestrator(t, fake)

	state, err := o.Fetch(context.Background(), "Lima", weather.Metric)
	require.Error(t, err)
	assert.Equal(t, "weather call failed: dial tcp: connection refused", state.ErrorMessage)
}

func TestFetch_Idempotent(t *testing.T) {
	fake := newFakeProviders()
	fake.covers["Rome"] = "https://img.example/rome.jpg"
	o := newTestOrchestrator(t, fake)

	first, err := o.Fetch(context.Background(), "Rome", weather.Imperial)
	require.NoError(t, err)
	second, err := o.Fetch(context.Background(), "Rome", weather.Imperial)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, fake.Calls(), 6)
}

func TestFetch_StaleResultIsDiscarded(t *testing.T) {
	fake := newFakeProviders()
	release, started := fake.gate("Paris")
	o := newTestOrchestrator(t, fake)
	metrics := &countingMetrics{calls: map[string]int{}, failures: map[string]int{}}
	o.SetMetricsRecorder(metrics)

	type outcome struct {
		state ViewState
		err   error
	}
	staleDone := make(chan outcome, 1)
	go func() {
		s, err := o.Fetch(context.Background(), "Paris", weather.Metric)
		staleDone <- outcome{s, err}
	}()

	<-started
	assert.True(t, o.State().IsLoading)

	fresh, err := o.Fetch(context.Background(), "Rome", weather.Metric)
	require.NoError(t, err)
	assert.Equal(t, "Rome", fresh.Result.Location)
	assert.False(t, fresh.IsLoading)

	// the older invocation answers last
	release()

	var stale outcome
	select {
	case stale = <-staleDone:
	case <-time.After(2 * time.Second):
		t.Fatal("stale fetch did not finish")
	}

	assert.ErrorIs(t, stale.err, ErrSuperseded)

	final := o.State()
	assert.Equal(t, "Rome", final.Location)
	require.NotNil(t, final.Result)
	assert.Equal(t, "Rome", final.Result.Location)
	assert.Equal(t, "Rome", final.Result.Weather.Name)
	assert.Equal(t, "Rome", final.Result.Forecast.City.Name)
	assert.False(t, final.IsLoading)
	assert.Equal(t, fresh, final)

	// the stale chain still made all three calls
	assert.Equal(t, 2, metrics.calls["weather"])
	assert.Equal(t, 2, metrics.calls["photo"])
	assert.Equal(t, 1, metrics.superseded)
}

func TestFetch_OlderFinishingFirstKeepsLoading(t *testing.T) {
	fake := newFakeProviders()
	releaseParis, parisStarted := fake.gate("Paris")
	releaseRome, romeStarted := fake.gate("Rome")
	o := newTestOrchestrator(t, fake)

	parisDone := make(chan error, 1)
	go func() {
		_, err := o.Fetch(context.Background(), "Paris", weather.Metric)
		parisDone <- err
	}()
	<-parisStarted

	romeDone := make(chan error, 1)
	go func() {
		_, err := o.Fetch(context.Background(), "Rome", weather.Imperial)
		romeDone <- err
	}()
	<-romeStarted

	releaseParis()
	assert.ErrorIs(t, <-parisDone, ErrSuperseded)

	mid := o.State()
	assert.True(t, mid.IsLoading)
	assert.Equal(t, "Rome", mid.Location)
	assert.Equal(t, weather.Imperial, mid.Units)
	assert.Nil(t, mid.Result)

	releaseRome()
	require.NoError(t, <-romeDone)

	final := o.State()
	assert.False(t, final.IsLoading)
	assert.Equal(t, "Rome", final.Result.Location)
	assert.Equal(t, weather.Imperial, final.Result.Units)
	assert.Equal(t, 68.0, final.Result.Weather.Main.Temp)
}

func TestFetch_StaleFailureDoesNotClearFreshResult(t *testing.T) {
	fake := newFakeProviders()
	fake.weatherErr["Atlantis"] = &weather.APIError{StatusCode: 404, Message: "city not found"}
	release, started := fake.gate("Atlantis")
	o := newTestOrchestrator(t, fake)

	done := make(chan error, 1)
	go func() {
		_, err := o.Fetch(context.Background(), "Atlantis", weather.Metric)
		done <- err
	}()
	<-started

	_, err := o.Fetch(context.Background(), "Rome", weather.Metric)
	require.NoError(t, err)

	release()
	assert.ErrorIs(t, <-done, ErrSuperseded)

	final := o.State()
	assert.Empty(t, final.ErrorMessage)
	assert.Equal(t, "Rome", final.Result.Location)
}

func TestSetUnits(t *testing.T) {
	fake := newFakeProviders()
	o := newTestOrchestrator(t, fake)

	state, err := o.SetUnits(context.Background(), weather.Imperial)
	require.NoError(t, err)
	assert.Equal(t, weather.Imperial, state.Units)
	assert.Empty(t, fake.Calls(), "no location yet, nothing to refetch")

	_, err = o.Search(context.Background(), "Berlin")
	require.NoError(t, err)
	assert.Equal(t, "weather:Berlin:imperial", fake.Calls()[0])

	state, err = o.SetUnits(context.Background(), weather.Metric)
	require.NoError(t, err)
	assert.Equal(t, weather.Metric, state.Result.Units)
	assert.Equal(t, 20.0, state.Result.Weather.Main.Temp)
	assert.Equal(t, "weather:Berlin:metric", fake.Calls()[3])
}

func TestFetch_FailureClearsPreviousError(t *testing.T) {
	fake := newFakeProviders()
	fake.weatherErr["Atlantis"] = &weather.APIError{StatusCode: 404, Message: "city not found"}
	o := newTestOrchestrator(t, fake)

	_, err := o.Fetch(context.Background(), "Atlantis", weather.Metric)
	require.Error(t, err)

	state, err := o.Fetch(context.Background(), "Madrid", weather.Metric)
	require.NoError(t, err)
	assert.Empty(t, state.ErrorMessage)
	assert.NotNil(t, state.Result)
}

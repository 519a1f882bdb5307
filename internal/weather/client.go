package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vzahanych/weather-page/internal/config"
	"go.uber.org/zap"
)

// APIError is a non-2xx answer from the weather provider. Message is the
// provider's own text and is shown to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewClientWithConfig(cfg config.ProvidersConfig, logger *zap.Logger) *Client {
	httpClient := &http.Client{}
	if cfg.Timeout > 0 {
		httpClient.Timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.WeatherAPIKey,
		client:  httpClient,
		logger:  logger,
	}
}

// Current fetches the current conditions for location.
func (c *Client) Current(ctx context.Context, location string, units UnitSystem) (*Snapshot, error) {
	var snapshot Snapshot
	if err := c.get(ctx, "weather", location, units, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Forecast fetches the 5 day / 3 hour forecast for location.
func (c *Client) Forecast(ctx context.Context, location string, units UnitSystem) (*Forecast, error) {
	var forecast Forecast
	if err := c.get(ctx, "forecast", location, units, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

func (c *Client) get(ctx context.Context, endpoint, location string, units UnitSystem, out interface{}) error {
	u, err := url.Parse(fmt.Sprintf("%s/%s", c.baseURL, endpoint))
	if err != nil {
		return err
	}

	q := u.Query()
	q.Set("q", location)
	q.Set("units", units.String())
	q.Set("APPID", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}

	c.logger.Debug("Calling weather provider",
		zap.String("endpoint", endpoint),
		zap.String("location", location),
		zap.String("units", units.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	return nil
}

func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	apiErr := &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("weather provider returned status %d", status),
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	}
	return apiErr
}

// ErrorMessage extracts the user-facing text from an error returned by Client.
func ErrorMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message, true
	}
	return "", false
}

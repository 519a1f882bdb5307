// Package photo resolves a cover image for a location through the photo
// search provider.
package photo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vzahanych/weather-page/internal/config"
	"go.uber.org/zap"
)

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL   string
	accessKey string
	client    *http.Client
	logger    *zap.Logger
}

type searchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		ID   string `json:"id"`
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

func NewClientWithConfig(cfg config.ProvidersConfig, logger *zap.Logger) *Client {
	httpClient := &http.Client{}
	if cfg.Timeout > 0 {
		httpClient.Timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.PhotoBaseURL, "/"),
		accessKey: cfg.PhotoAPIAccessKey,
		client:    httpClient,
		logger:    logger,
	}
}

// SearchCover asks for the single best editorial match for query. An empty
// result set is not an error: the URL is "" and the page renders without a
// background.
func (c *Client) SearchCover(ctx context.Context, query string) (string, error) {
	u, err := url.Parse(c.baseURL + "/search/photos")
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("per_page", "1")
	q.Set("order_by", "editorial")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create photo request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("photo search failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read photo response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeAPIError(resp.StatusCode, body)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode photo response: %w", err)
	}

	if len(result.Results) == 0 {
		c.logger.Debug("No cover photo found", zap.String("query", query))
		return "", nil
	}

	return result.Results[0].URLs.Regular, nil
}

func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Errors []string `json:"errors"`
	}
	apiErr := &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("photo provider returned status %d", status),
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 {
		apiErr.Message = payload.Errors[0]
	}
	return apiErr
}

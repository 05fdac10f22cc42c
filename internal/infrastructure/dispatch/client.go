package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
	maxErrorBody   = 200
)

// Config captures the settings of the dispatch API client.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Client fetches live tracking payloads from the dispatch API.
type Client struct {
	http      *http.Client
	userAgent string
	log       zerolog.Logger
}

// NewClient applies a default timeout when none is provided.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		log:       log,
	}
}

// Fetch satisfies ports.TrackingFetcher.
func (c *Client) Fetch(ctx context.Context, endpoint string) (*domain.TrackingSnapshot, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	snap, err := decodeTracking(body)
	if err != nil {
		return nil, &domain.ParseError{URL: endpoint, Cause: err}
	}

	c.log.Debug().
		Str("endpoint", endpoint).
		Bool("has_location", snap.Location != nil).
		Int("tasks", len(snap.Tasks)).
		Msg("tracking payload fetched")
	return snap, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.NetworkError{URL: endpoint, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{URL: endpoint, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.NetworkError{URL: endpoint, Cause: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.HTTPError{URL: endpoint, StatusCode: resp.StatusCode, Body: excerpt(body)}
	}
	return body, nil
}

func excerpt(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}

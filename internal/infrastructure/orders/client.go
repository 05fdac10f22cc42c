package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultListLimit = 50
	maxBodyBytes     = 4 << 20
	maxErrorBody     = 200
)

var errMissingEnvelope = errors.New("expected data.data array")

// Config captures the settings of the order API client.
type Config struct {
	BaseURL     string
	TenantCode  string
	Email       string
	Password    string
	DeviceToken string
	ListLimit   int
	Timeout     time.Duration
}

// Client talks to the order API. The bearer token is held per instance and
// obtained lazily when credentials are configured.
type Client struct {
	http *http.Client
	cfg  Config
	log  zerolog.Logger

	mu    sync.RWMutex
	token string
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = defaultListLimit
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
		log:  log,
	}
}

// Login exchanges email and password for an auth token and keeps it for
// subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	deviceToken := c.cfg.DeviceToken
	if deviceToken == "" {
		deviceToken = "driver-tracker"
	}
	payload, err := json.Marshal(loginRequest{
		Email:       email,
		Password:    password,
		DeviceType:  "web",
		DeviceToken: deviceToken,
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &domain.NetworkError{URL: endpoint, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.setTenant(req)

	body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &domain.ParseError{URL: endpoint, Cause: err}
	}
	if resp.Data == nil || resp.Data.AuthToken == "" {
		return &domain.ParseError{URL: endpoint, Cause: errors.New("missing data.auth_token")}
	}

	c.mu.Lock()
	c.token = resp.Data.AuthToken
	c.mu.Unlock()

	c.log.Info().Str("email", email).Msg("order api login succeeded")
	return nil
}

// Authenticated reports whether a token is held.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// ListOrders returns up to limit orders, newest first as served by the API.
// A 401 triggers a single re-login when credentials are configured.
func (c *Client) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = c.cfg.ListLimit
	}

	orders, err := c.listOrders(ctx, limit)
	var he *domain.HTTPError
	if errors.As(err, &he) && he.StatusCode == http.StatusUnauthorized && c.hasCredentials() {
		c.log.Warn().Msg("order api token rejected, logging in again")
		if err := c.Login(ctx, c.cfg.Email, c.cfg.Password); err != nil {
			return nil, err
		}
		return c.listOrders(ctx, limit)
	}
	return orders, err
}

// FindOrder satisfies ports.OrderDirectory.
func (c *Client) FindOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	orders, err := c.ListOrders(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.Number == orderNumber {
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", orderNumber, domain.ErrNotFound)
}

// TrackedOrders satisfies ports.OrderDirectory.
func (c *Client) TrackedOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := c.ListOrders(ctx, 0)
	if err != nil {
		return nil, err
	}
	tracked := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.HasTracking() {
			tracked = append(tracked, o)
		}
	}
	return tracked, nil
}

func (c *Client) listOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	endpoint := c.cfg.BaseURL + "/orders?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.NetworkError{URL: endpoint, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	c.setTenant(req)
	c.mu.RLock()
	req.Header.Set("Authorization", c.token)
	c.mu.RUnlock()

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ParseError{URL: endpoint, Cause: err}
	}
	if resp.Data == nil || resp.Data.Data == nil {
		return nil, &domain.ParseError{URL: endpoint, Cause: errMissingEnvelope}
	}

	payloads := *resp.Data.Data
	out := make([]domain.Order, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, p.toDomain())
	}
	return out, nil
}

func (c *Client) ensureToken(ctx context.Context) error {
	if c.Authenticated() {
		return nil
	}
	if !c.hasCredentials() {
		return domain.ErrNotAuthenticated
	}
	return c.Login(ctx, c.cfg.Email, c.cfg.Password)
}

func (c *Client) hasCredentials() bool {
	return c.cfg.Email != "" && c.cfg.Password != ""
}

func (c *Client) setTenant(req *http.Request) {
	if c.cfg.TenantCode != "" {
		req.Header.Set("code", c.cfg.TenantCode)
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	endpoint := req.URL.String()
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
		b := string(body)
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody] + "..."
		}
		return nil, &domain.HTTPError{URL: endpoint, StatusCode: resp.StatusCode, Body: b}
	}
	return body, nil
}

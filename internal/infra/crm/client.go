package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/andomingos87/seleto-industrial-sub000/internal/metrics"
	"github.com/andomingos87/seleto-industrial-sub000/internal/retry"
)

// Config holds CRM client settings. Zero-valued fields get defaults in
// NewClient; DisableCache is inverted so the zero value keeps the city cache
// on.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	Token             string        `yaml:"token"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	TotalTimeout      time.Duration `yaml:"total_timeout"`
	DefaultPipelineID int           `yaml:"pipeline_id"`
	DefaultStageID    int           `yaml:"stage_id"`
	DefaultOriginID   int           `yaml:"origin_id"`
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	DisableCache      bool          `yaml:"disable_cache"`
}

// Client performs authenticated calls against the CRM REST API. Every network
// call is classified into the error taxonomy and wrapped by the retry engine.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     retry.Policy

	defaultPipelineID int
	defaultStageID    int
	defaultOriginID   int

	cache *cityCache
	log   *slog.Logger
}

// NewClient creates a CRM client from cfg, applying defaults for unset fields.
func NewClient(cfg Config) *Client {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.TotalTimeout == 0 {
		cfg.TotalTimeout = 30 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 1 * time.Second
	}

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.MaxAttempts
	policy.InitialBackoff = cfg.InitialBackoff

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.TotalTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		policy:            policy,
		defaultPipelineID: cfg.DefaultPipelineID,
		defaultStageID:    cfg.DefaultStageID,
		defaultOriginID:   cfg.DefaultOriginID,
		cache:             newCityCache(!cfg.DisableCache),
		log:               slog.With("component", "crm"),
	}
}

// IsConfigured reports whether the client has both a base URL and a token.
// Unconfigured clients fail every operation immediately, without a network
// call.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.token != ""
}

// ClearCityCache discards all cached city lookups.
func (c *Client) ClearCityCache() {
	c.cache.Clear()
}

// SetCityCacheEnabled toggles the city cache. Disabling bypasses lookup and
// storage entirely.
func (c *Client) SetCityCacheEnabled(enabled bool) {
	c.cache.SetEnabled(enabled)
}

// do performs one CRM request under the retry policy, returning the response
// body on 200/201, nil on 204, and a classified error otherwise.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	body, err := retry.Do(ctx, op, c.policy, func(ctx context.Context) ([]byte, error) {
		return c.attempt(ctx, method, path, query, payload)
	})

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.CRMCallsTotal.WithLabelValues(op, outcome).Inc()
	metrics.CRMCallLatency.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())

	return body, err
}

// attempt performs a single HTTP exchange and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return body, nil
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	default:
		return nil, classifyStatus(resp.StatusCode, body, parseRetryAfter(resp.Header.Get("Retry-After")))
	}
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

// downgrade converts fatal classified errors (auth, not-found, validation)
// into a nil id so orchestration steps can apply their own best-effort policy.
// Retry-exhausted transport and server errors propagate.
func (c *Client) downgrade(op string, err error) (*int, error) {
	if IsFatal(err) {
		c.log.Warn("crm call failed, continuing without id", "op", op, "error", err)
		return nil, nil
	}
	return nil, err
}

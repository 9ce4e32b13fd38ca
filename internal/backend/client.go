// Package backend is a read-only client for the BUMDes REST API: the per-tenant
// user and module-activation listings the analytics fan out over.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/gosuda/insight/internal/domain"
	"github.com/gosuda/insight/internal/metrics"
)

const (
	endpointUsers         = "users"
	endpointTenantModules = "tenant-modules"

	// maxPages stops a misbehaving backend from paginating forever.
	maxPages = 1000

	// maxBodyBytes caps a single page response.
	maxBodyBytes = 8 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s returned HTTP %d", e.Endpoint, e.StatusCode)
}

// Config holds the client settings.
type Config struct {
	BaseURL  string
	Token    string //nolint:gosec // G117: backend bearer token config
	PageSize int
	Timeout  time.Duration
	// RPS and Burst throttle outgoing requests across all tenants.
	RPS   float64
	Burst int
	// FailureThreshold consecutive failures open the breaker for
	// BreakerTimeout.
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

// Client lists per-tenant collections from the backend. It is safe for
// concurrent use.
type Client struct {
	baseURL  *url.URL
	token    string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMetrics reports every round trip to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend.New: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend.New: base url %q must be http or https", cfg.BaseURL)
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := max(cfg.Burst, 1)

	threshold := cfg.FailureThreshold
	c := &Client{
		baseURL:  base,
		token:    cfg.Token,
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "bumdes-backend",
			Timeout: cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("backend: circuit breaker state changed")
			},
		}),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// ListUsers returns every user of tenantID across all pages.
func (c *Client) ListUsers(ctx context.Context, tenantID int64) ([]domain.UserRecord, error) {
	users, err := listAll[domain.UserRecord](ctx, c, endpointUsers, tenantID)
	if err != nil {
		return nil, fmt.Errorf("backend.Client.ListUsers: %w", err)
	}
	return users, nil
}

// ListTenantModules returns every module activation record of tenantID.
func (c *Client) ListTenantModules(ctx context.Context, tenantID int64) ([]domain.ModuleRecord, error) {
	modules, err := listAll[domain.ModuleRecord](ctx, c, endpointTenantModules, tenantID)
	if err != nil {
		return nil, fmt.Errorf("backend.Client.ListTenantModules: %w", err)
	}
	return modules, nil
}

// page is the paginated envelope the backend wraps collections in. Records
// stay raw so one malformed record does not void the page.
type page struct {
	Data []json.RawMessage `json:"data"`
	Meta struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
	} `json:"meta"`
}

func listAll[T any](ctx context.Context, c *Client, endpoint string, tenantID int64) ([]T, error) {
	all := make([]T, 0)

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		q := url.Values{}
		q.Set("tenant_id", strconv.FormatInt(tenantID, 10))
		q.Set("page", strconv.Itoa(pageNum))
		q.Set("per_page", strconv.Itoa(c.pageSize))

		body, err := c.get(ctx, endpoint, q)
		if err != nil {
			return nil, err
		}

		var p page
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decode %s page %d: %w", endpoint, pageNum, err)
		}
		all = appendRecords(all, p.Data, endpoint, tenantID, pageNum)

		if len(p.Data) == 0 || p.Meta.LastPage <= pageNum {
			return all, nil
		}
	}

	return nil, fmt.Errorf("%s: more than %d pages", endpoint, maxPages)
}

// appendRecords decodes each raw record into dst. Records that fail to decode
// are skipped with a warning.
func appendRecords[T any](dst []T, raw []json.RawMessage, endpoint string, tenantID int64, pageNum int) []T {
	for i, msg := range raw {
		var rec T
		if err := json.Unmarshal(msg, &rec); err != nil {
			log.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int64("tenant_id", tenantID).
				Int("page", pageNum).
				Int("index", i).
				Msg("backend: skipping malformed record")
			continue
		}
		dst = append(dst, rec)
	}
	return dst
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL.JoinPath(endpoint)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Only transport errors and 5xx count against the breaker. A 4xx or a
	// cancelled caller says nothing about the backend's health.
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, doErr := c.http.Do(req)
		if doErr != nil && ctx.Err() != nil {
			return response{err: ctx.Err()}, nil
		}
		if doErr != nil {
			c.metrics.IncrementBackendRequest(endpoint, "error")
			return nil, doErr
		}
		defer resp.Body.Close()

		c.metrics.IncrementBackendRequest(endpoint, statusClass(resp.StatusCode))
		if resp.StatusCode >= http.StatusInternalServerError {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, fmt.Errorf("read body: %w", readErr)
		}
		return response{status: resp.StatusCode, body: body}, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
	if err != nil {
		return nil, err
	}

	res, ok := out.(response)
	if !ok {
		return nil, errors.New("unexpected breaker result")
	}
	if res.err != nil {
		return nil, res.err
	}
	if res.status < 200 || res.status > 299 {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: res.status}
	}
	return res.body, nil
}

type response struct {
	status int
	body   []byte
	err    error
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

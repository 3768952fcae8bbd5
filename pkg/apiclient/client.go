// Package apiclient is the single HTTP wrapper every portal flow uses to reach
// the backend API. It injects the base URL and the caller's bearer token,
// applies a per-call timeout and normalizes failures into *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Jawadyyy/healthmate-portal/pkg/circuitbreaker"
	"github.com/Jawadyyy/healthmate-portal/pkg/metrics"
)

const (
	DefaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures int
	BreakerTimeout  time.Duration
	UserAgent       string
}

// TokenSource resolves the bearer token at call time.
type TokenSource func(ctx context.Context) string

type Client struct {
	baseURL    string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	tokens     TokenSource
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "healthmate-portal"
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		userAgent:  userAgent,
		httpClient: &http.Client{},
		tokens:     TokenFromContext,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	breakerTimeout := cfg.BreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}
	c.breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "backend-api",
		MaxFailures: cfg.BreakerFailures,
		Timeout:     breakerTimeout,
		IsFailure:   countsAgainstBreaker,
		OnStateChange: func(name, from, to string) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from), zap.String("to", to))
			if c.metrics != nil {
				open := 0.0
				if to == "open" {
					open = 1
				}
				c.metrics.BreakerState.WithLabelValues(name).Set(open)
			}
		},
	})

	return c
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do performs one call. There is no retry: a failure is returned to the caller as *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	// A caller that already gave up says nothing about the backend.
	if err := ctx.Err(); err != nil {
		return &Error{Method: method, Path: path, Kind: KindNetwork, Err: err}
	}

	var raw []byte
	err := c.breaker.Execute(func() error {
		var callErr error
		raw, callErr = c.roundTrip(ctx, method, path, body)
		return callErr
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return &Error{Method: method, Path: path, Kind: KindNetwork, Err: err}
	}
	if err != nil {
		return err
	}
	return Decode(raw, out)
}

func (c *Client) roundTrip(parent context.Context, method, path string, body interface{}) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(method, 0, elapsed)
		if perr := parent.Err(); errors.Is(perr, context.Canceled) {
			c.logger.Debug("backend call abandoned by caller",
				zap.String("method", method), zap.String("path", path), zap.Duration("duration", elapsed))
			return nil, &Error{Method: method, Path: path, Kind: KindNetwork, Err: perr}
		}
		c.logger.Warn("backend call failed",
			zap.String("method", method), zap.String("path", path),
			zap.Duration("duration", elapsed), zap.Error(err))
		return nil, &Error{Method: method, Path: path, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	c.observe(method, resp.StatusCode, elapsed)
	if err != nil {
		return nil, &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Kind: KindNetwork, Err: err}
	}

	c.logger.Debug("backend call",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("duration", elapsed))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
			Kind:       Classify(resp.StatusCode),
		}
	}
	return raw, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) observe(method string, status int, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.metrics.UpstreamLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// BreakerState exposes the breaker state for readiness checks.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

type ctxKey int

const (
	tokenKey ctxKey = iota
	requestIDKey
)

// WithToken attaches the caller's bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext is the default TokenSource.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// WithRequestID propagates the gateway request id to the backend.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

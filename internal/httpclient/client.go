// Package httpclient sends catalog requests, retrying rate limits and
// transient upstream failures with exponential backoff.
package httpclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds retry and timeout configuration.
type Config struct {
	Attempts     int           // total tries per request, at least 1
	InitialDelay time.Duration // first retry delay, doubled afterwards
	MaxDelay     time.Duration // cap for any single delay, Retry-After included
	Timeout      time.Duration // per attempt
}

// DefaultConfig returns the settings used for TMDb.
func DefaultConfig() Config {
	return Config{
		Attempts:     3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Timeout:      30 * time.Second,
	}
}

// Client wraps http.Client with retries.
type Client struct {
	http   *http.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// statusError marks a response whose status warrants another attempt.
type statusError struct {
	code int
	path string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.code, e.path)
}

// Do sends req, retrying 429 for any method and 5xx gateway errors or
// network failures for idempotent ones. A cancelled or expired request
// context is returned as the context error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	policy := &retryPolicy{schedule: c.schedule(), max: c.cfg.MaxDelay}

	attempts := 0
	op := func() (*http.Response, error) {
		attempts++
		if attempts > 1 {
			if err := rewind(req); err != nil {
				return nil, backoff.Permanent(err)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			if !idempotent(req.Method) {
				return nil, backoff.Permanent(err)
			}
			policy.hint = 0
			return nil, err
		}
		if !retryStatus(resp.StatusCode, req.Method) {
			return resp, nil
		}
		policy.hint = retryAfter(resp.Header.Get("Retry-After"))
		_ = resp.Body.Close()
		return nil, &statusError{code: resp.StatusCode, path: req.URL.Path}
	}

	notify := func(err error, delay time.Duration) {
		c.logger.Debug("retrying request",
			slog.Int("attempt", attempts+1),
			slog.Duration("delay", delay),
			slog.String("path", req.URL.Path),
			slog.String("reason", err.Error()),
		)
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if c.cfg.Attempts > 1 {
		b = backoff.WithMaxRetries(policy, uint64(c.cfg.Attempts-1))
	}
	resp, err := backoff.RetryNotifyWithData(op, backoff.WithContext(b, ctx), notify)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var se *statusError
	if errors.As(err, &se) || attempts > 1 {
		return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, err)
	}
	return nil, err
}

// schedule returns an exponential schedule from InitialDelay up to MaxDelay with 20% jitter.
func (c *Client) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialDelay
	b.MaxInterval = c.cfg.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// retryPolicy follows the exponential schedule but waits at least as long as
// the server's Retry-After hint, never longer than max.
type retryPolicy struct {
	schedule *backoff.ExponentialBackOff
	hint     time.Duration
	max      time.Duration
}

func (p *retryPolicy) NextBackOff() time.Duration {
	d := p.schedule.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	d = max(d, p.hint)
	if p.max > 0 {
		d = min(d, p.max)
	}
	return d
}

func (p *retryPolicy) Reset() {
	p.schedule.Reset()
	p.hint = 0
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func rewind(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("replay request body: %w", err)
	}
	req.Body = body
	return nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// retryStatus reports whether a response status warrants another attempt.
// TMDb answers 429 when the rate limit is hit; that is safe to retry for any
// method because the request was rejected before it was processed.
func retryStatus(code int, method string) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	if !idempotent(method) {
		return false
	}
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

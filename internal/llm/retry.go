package llm

import (
	"context"
	"log/slog"
	"time"
)

// RetryConfig bounds the retry loop around a completion call.
type RetryConfig struct {
	MaxAttempts int           // total attempts including the first (default 3)
	BaseDelay   time.Duration // delay before the first retry (default 500ms)
	MaxDelay    time.Duration // backoff cap (default 8s)
}

func (c *RetryConfig) defaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 8 * time.Second
	}
}

type retryClient struct {
	underlying Client
	cfg        RetryConfig
}

// NewRetryClient wraps a Client with bounded exponential backoff. Only
// retryable provider errors are retried; the last error is returned once
// attempts are exhausted.
func NewRetryClient(client Client, cfg RetryConfig) Client {
	cfg.defaults()
	return &retryClient{underlying: client, cfg: cfg}
}

func (c *retryClient) Complete(ctx context.Context, req Request) (*Response, error) {
	delay := c.cfg.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		resp, err := c.underlying.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == c.cfg.MaxAttempts || !IsRetryable(ctx, err) {
			break
		}

		slog.DebugContext(ctx, "retrying llm completion",
			"attempt", attempt,
			"delay_ms", delay.Milliseconds())

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.cfg.MaxDelay {
			delay = c.cfg.MaxDelay
		}
	}

	return nil, lastErr
}

func (c *retryClient) Model() string {
	return c.underlying.Model()
}

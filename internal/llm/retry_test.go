package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryClient_SucceedsFirstTry(t *testing.T) {
	mock := &MockClient{Responses: []string{"ok"}}
	client := NewRetryClient(mock, fastRetry())

	resp, err := client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("content = %q", resp.Content)
	}
	if mock.Calls() != 1 {
		t.Errorf("calls = %d, want 1", mock.Calls())
	}
}

func TestRetryClient_ExhaustsAttempts(t *testing.T) {
	cause := errors.New("connection reset")
	mock := &MockClient{Err: cause}
	client := NewRetryClient(mock, fastRetry())

	_, err := client.Complete(context.Background(), Request{})
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want the last underlying error", err)
	}
	if mock.Calls() != 3 {
		t.Errorf("calls = %d, want 3", mock.Calls())
	}
}

func TestRetryClient_NoRetryOnCancellation(t *testing.T) {
	mock := &MockClient{Err: context.Canceled}
	client := NewRetryClient(mock, fastRetry())

	_, err := client.Complete(context.Background(), Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("calls = %d, want 1 (cancellation is not retryable)", mock.Calls())
	}
}

func TestRetryClient_DefaultsApplied(t *testing.T) {
	mock := &MockClient{Responses: []string{"ok"}}
	client := NewRetryClient(mock, RetryConfig{})

	if _, err := client.Complete(context.Background(), Request{}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func TestRetryClient_ModelPassthrough(t *testing.T) {
	client := NewRetryClient(&MockClient{}, fastRetry())
	if client.Model() != "mock-model" {
		t.Errorf("Model() = %q", client.Model())
	}
}

func TestIsRetryable(t *testing.T) {
	ctx := context.Background()

	if IsRetryable(ctx, nil) {
		t.Error("nil error is not retryable")
	}
	if IsRetryable(ctx, context.Canceled) {
		t.Error("cancellation is not retryable")
	}
	if IsRetryable(ctx, context.DeadlineExceeded) {
		t.Error("deadline is not retryable")
	}
	if !IsRetryable(ctx, errors.New("connection refused")) {
		t.Error("network-level errors are retryable")
	}
}

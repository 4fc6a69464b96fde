package tavily_test

import (
	"context"
	"errors"
	"testing"
	"time"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/tavily"
)

func fastRetryConfig(maxAttempts int) tavily.RetryConfig {
	return tavily.RetryConfig{
		MaxAttempts:   maxAttempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestWithRetryTransientThenSuccess(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxAttempt int
		wantOK     bool
		wantCalls  int
	}{
		{"succeeds first try", 0, 3, true, 1},
		{"one failure then success", 1, 3, true, 2},
		{"two failures then success", 2, 3, true, 3},
		{"failures exhaust attempts", 3, 3, false, 3},
		{"failures exceed attempts", 5, 3, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result, err := tavily.WithRetry(context.Background(), fastRetryConfig(tt.maxAttempt), "tavily_search", func() (*string, error) {
				calls++
				if calls <= tt.failures {
					return nil, domainsearch.NewStatusError("tavily_search", domainsearch.KindUpstream, 503, "unavailable")
				}
				value := "ok"
				return &value, nil
			})

			if tt.wantOK {
				if err != nil {
					t.Fatalf("WithRetry() error = %v, want success", err)
				}
				if *result != "ok" {
					t.Errorf("result = %q, want ok", *result)
				}
			} else {
				if err == nil {
					t.Fatal("WithRetry() expected error")
				}
				// The last transient error kind survives the wrapping
				if kind := domainsearch.KindOf(err); kind != domainsearch.KindUpstream {
					t.Errorf("KindOf() = %v, want upstream", kind)
				}
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestWithRetryNonTransientNoRetry(t *testing.T) {
	tests := []struct {
		name string
		kind domainsearch.ErrorKind
	}{
		{"authentication", domainsearch.KindAuthentication},
		{"invalid request", domainsearch.KindInvalidRequest},
		{"validation", domainsearch.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := tavily.WithRetry(context.Background(), fastRetryConfig(3), "tavily_search", func() (*string, error) {
				calls++
				return nil, domainsearch.NewError("tavily_search", tt.kind, "no", nil)
			})

			if err == nil {
				t.Fatal("expected error")
			}
			// Exactly one attempt, never retried
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
			if kind := domainsearch.KindOf(err); kind != tt.kind {
				t.Errorf("KindOf() = %v, want %v", kind, tt.kind)
			}
		})
	}
}

func TestWithRetryUntypedErrorRetries(t *testing.T) {
	calls := 0
	_, err := tavily.WithRetry(context.Background(), fastRetryConfig(3), "tavily_search", func() (*int, error) {
		calls++
		return nil, errors.New("mystery failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (untyped errors treated as transient)", calls)
	}
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cfg := tavily.RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  time.Second,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := tavily.WithRetry(ctx, cfg, "tavily_search", func() (*string, error) {
		calls++
		return nil, domainsearch.NewStatusError("tavily_search", domainsearch.KindUpstream, 500, "boom")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if kind := domainsearch.KindOf(err); kind != domainsearch.KindTimeout {
		t.Errorf("KindOf() = %v, want timeout after cancelled wait", kind)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (cancelled during first backoff)", calls)
	}
}

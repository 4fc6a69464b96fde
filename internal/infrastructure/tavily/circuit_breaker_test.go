package tavily_test

import (
	"errors"
	"testing"
	"time"

	"tavily-mcp-server/internal/infrastructure/tavily"
)

func testBreakerConfig() tavily.CircuitBreakerConfig {
	return tavily.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          20 * time.Millisecond,
		MaxHalfOpenCalls: 2,
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := tavily.NewCircuitBreaker(testBreakerConfig())
	failure := errors.New("upstream down")

	for i := 0; i < 3; i++ {
		if !cb.Allow("tavily_search") {
			t.Fatalf("Allow() = false on call %d, breaker should still be closed", i)
		}
		cb.RecordResult("tavily_search", failure)
	}

	if cb.State() != tavily.StateOpen {
		t.Errorf("State() = %v, want open after threshold failures", cb.State())
	}
	if cb.Allow("tavily_search") {
		t.Error("Allow() = true while open")
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := tavily.NewCircuitBreaker(testBreakerConfig())
	failure := errors.New("flaky")

	cb.RecordResult("tavily_search", failure)
	cb.RecordResult("tavily_search", failure)
	cb.RecordResult("tavily_search", nil)
	cb.RecordResult("tavily_search", failure)
	cb.RecordResult("tavily_search", failure)

	if cb.State() != tavily.StateClosed {
		t.Errorf("State() = %v, want closed (success reset the count)", cb.State())
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := tavily.NewCircuitBreaker(testBreakerConfig())
	failure := errors.New("down")

	for i := 0; i < 3; i++ {
		cb.RecordResult("tavily_search", failure)
	}
	if cb.State() != tavily.StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	time.Sleep(30 * time.Millisecond)

	if !cb.Allow("tavily_search") {
		t.Fatal("Allow() = false after timeout, want half-open probe admitted")
	}
	if cb.State() != tavily.StateHalfOpen {
		t.Fatalf("State() = %v, want half-open", cb.State())
	}

	cb.RecordResult("tavily_search", nil)
	cb.RecordResult("tavily_search", nil)

	if cb.State() != tavily.StateClosed {
		t.Errorf("State() = %v, want closed after success threshold", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := tavily.NewCircuitBreaker(testBreakerConfig())
	failure := errors.New("down")

	for i := 0; i < 3; i++ {
		cb.RecordResult("tavily_search", failure)
	}
	time.Sleep(30 * time.Millisecond)

	if !cb.Allow("tavily_search") {
		t.Fatal("expected half-open probe")
	}
	cb.RecordResult("tavily_search", failure)

	if cb.State() != tavily.StateOpen {
		t.Errorf("State() = %v, want open again after half-open failure", cb.State())
	}
}

func TestCircuitBreakerHalfOpenCallLimit(t *testing.T) {
	cb := tavily.NewCircuitBreaker(testBreakerConfig())
	failure := errors.New("down")

	for i := 0; i < 3; i++ {
		cb.RecordResult("tavily_search", failure)
	}
	time.Sleep(30 * time.Millisecond)

	admitted := 0
	for i := 0; i < 5; i++ {
		if cb.Allow("tavily_search") {
			admitted++
		}
	}
	if admitted != 2 {
		t.Errorf("admitted %d half-open calls, want 2", admitted)
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cfg := testBreakerConfig()
	cfg.Enabled = false
	cb := tavily.NewCircuitBreaker(cfg)
	failure := errors.New("down")

	for i := 0; i < 10; i++ {
		cb.RecordResult("tavily_search", failure)
	}
	if !cb.Allow("tavily_search") {
		t.Error("Allow() = false with breaker disabled")
	}
	if cb.State() != tavily.StateClosed {
		t.Errorf("State() = %v, want closed when disabled", cb.State())
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := tavily.NewCircuitBreaker(testBreakerConfig())
	failure := errors.New("down")

	for i := 0; i < 3; i++ {
		cb.RecordResult("tavily_search", failure)
	}
	cb.Reset()

	if cb.State() != tavily.StateClosed {
		t.Errorf("State() = %v, want closed after Reset", cb.State())
	}
	if !cb.Allow("tavily_search") {
		t.Error("Allow() = false after Reset")
	}
}

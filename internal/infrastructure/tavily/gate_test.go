package tavily_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tavily-mcp-server/internal/infrastructure/tavily"
)

func TestGateBoundsConcurrency(t *testing.T) {
	const limit = 5
	const workers = 40

	gate := tavily.NewGate(limit)

	var inFlight atomic.Int64
	var maxSeen atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := gate.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer gate.Release()

			cur := inFlight.Add(1)
			for {
				seen := maxSeen.Load()
				if cur <= seen || maxSeen.CompareAndSwap(seen, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if got := maxSeen.Load(); got > limit {
		t.Errorf("observed %d concurrent holders, want at most %d", got, limit)
	}
}

func TestGateAcquireRespectsContext(t *testing.T) {
	gate := tavily.NewGate(1)

	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := gate.Acquire(ctx); err == nil {
		gate.Release()
		t.Fatal("expected Acquire to fail when gate is full and context expires")
	}

	gate.Release()

	// Slot freed, a fresh acquire succeeds
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	gate.Release()
}

func TestGateDefaultLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		gate := tavily.NewGate(limit)
		if got := gate.Limit(); got != tavily.DefaultGateLimit {
			t.Errorf("NewGate(%d).Limit() = %d, want %d", limit, got, tavily.DefaultGateLimit)
		}
	}

	gate := tavily.NewGate(12)
	if got := gate.Limit(); got != 12 {
		t.Errorf("Limit() = %d, want 12", got)
	}
}

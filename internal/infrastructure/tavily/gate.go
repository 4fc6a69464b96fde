package tavily

import (
	"context"

	"golang.org/x/sync/semaphore"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/metrics"
)

// DefaultGateLimit bounds concurrent outbound provider calls when no limit
// is configured.
const DefaultGateLimit = 5

// Gate is a counting semaphore bounding in-flight outbound calls. Acquire
// blocks until a slot frees or the caller's context ends; Release must be
// called exactly once per successful Acquire, success or failure.
type Gate struct {
	sem   *semaphore.Weighted
	limit int
}

var _ domainsearch.Gate = (*Gate)(nil)

// NewGate creates a gate admitting at most limit concurrent calls.
func NewGate(limit int) *Gate {
	if limit <= 0 {
		limit = DefaultGateLimit
	}
	return &Gate{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: limit,
	}
}

// Acquire blocks until a slot is available or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	metrics.GateInFlight.Inc()
	return nil
}

// Release frees a slot.
func (g *Gate) Release() {
	metrics.GateInFlight.Dec()
	g.sem.Release(1)
}

// Limit returns the configured admission bound.
func (g *Gate) Limit() int {
	return g.limit
}

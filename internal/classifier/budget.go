package classifier

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Budget admits query units against the shared remote rate limit
type Budget interface {
	Acquire(ctx context.Context) error
}

// QueryBudget is the process-wide query budget shared by every run. It paces
// admissions with a token bucket and optionally caps the total number of units.
type QueryBudget struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	limit   int
	used    int
}

// NewQueryBudget creates a budget admitting perHour units per hour with the
// given burst. perHour <= 0 disables pacing; limit <= 0 disables the cap.
func NewQueryBudget(perHour, burst, limit int) *QueryBudget {
	every := rate.Inf
	if perHour > 0 {
		every = rate.Every(time.Hour / time.Duration(perHour))
	}
	if burst < 1 {
		burst = 1
	}
	return &QueryBudget{
		limiter: rate.NewLimiter(every, burst),
		limit:   limit,
	}
}

// Acquire blocks until one unit is admitted, the cap is reached or ctx ends
func (b *QueryBudget) Acquire(ctx context.Context) error {
	b.mu.Lock()
	if b.limit > 0 && b.used >= b.limit {
		b.mu.Unlock()
		return ErrBudgetExhausted
	}
	b.used++
	b.mu.Unlock()

	if err := b.limiter.Wait(ctx); err != nil {
		b.mu.Lock()
		b.used--
		b.mu.Unlock()
		return err
	}
	return nil
}

// Used returns the number of admitted units
func (b *QueryBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining returns the units left under the cap, or -1 when uncapped
func (b *QueryBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit <= 0 {
		return -1
	}
	return b.limit - b.used
}

package ratelimit

import (
	"context"
	"time"

	"github.com/noah-isme/netcost/internal/resilience"
)

// Failover consults Primary while its breaker is closed and serves from
// Fallback when Primary errors or the breaker is open.
type Failover struct {
	Primary  Allower
	Fallback Allower
	Breaker  *resilience.Breaker
}

// Allow implements Allower.
func (f Failover) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if f.Primary == nil || f.Breaker == nil {
		return f.fallback(ctx, key, window, max)
	}
	var (
		allowed   bool
		remaining int
		reset     time.Time
	)
	err := f.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		allowed, remaining, reset, err = f.Primary.Allow(ctx, key, window, max)
		return err
	})
	if err != nil {
		return f.fallback(ctx, key, window, max)
	}
	return allowed, remaining, reset, nil
}

func (f Failover) fallback(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if f.Fallback == nil {
		return true, max, time.Now().Add(window), nil
	}
	return f.Fallback.Allow(ctx, key, window, max)
}

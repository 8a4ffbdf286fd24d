package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/netcost/internal/resilience"
)

type countingAllower struct {
	calls int
	err   error
}

func (c *countingAllower) Allow(_ context.Context, _ string, window time.Duration, max int) (bool, int, time.Time, error) {
	c.calls++
	if c.err != nil {
		return false, 0, time.Time{}, c.err
	}
	return true, max - 1, time.Now().Add(window), nil
}

func TestFailoverUsesPrimaryWhileHealthy(t *testing.T) {
	primary := &countingAllower{}
	fallback := &countingAllower{}
	f := Failover{Primary: primary, Fallback: fallback, Breaker: resilience.NewBreaker(resilience.Config{MinRequests: 1})}

	allowed, remaining, _, err := f.Allow(context.Background(), "k", time.Second, 5)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 4, remaining)
	require.Equal(t, 1, primary.calls)
	require.Zero(t, fallback.calls)
}

func TestFailoverSkipsPrimaryOnceBreakerOpens(t *testing.T) {
	primary := &countingAllower{err: errors.New("connection refused")}
	fallback := &countingAllower{}
	breaker := resilience.NewBreaker(resilience.Config{MinRequests: 2, OpenFor: time.Hour})
	f := Failover{Primary: primary, Fallback: fallback, Breaker: breaker}

	for i := 0; i < 5; i++ {
		allowed, _, _, err := f.Allow(context.Background(), "k", time.Second, 5)
		require.NoError(t, err)
		require.True(t, allowed)
	}
	require.Equal(t, 2, primary.calls)
	require.Equal(t, 5, fallback.calls)
	require.Equal(t, resilience.Open, breaker.State())
}

func TestFailoverWithMemoryFallbackStillLimits(t *testing.T) {
	f := Failover{
		Primary:  &countingAllower{err: errors.New("down")},
		Fallback: NewMemoryLimiter("failover:"),
		Breaker:  resilience.NewBreaker(resilience.Config{MinRequests: 1, OpenFor: time.Hour}),
	}
	ctx := context.Background()
	allowed, _, _, err := f.Allow(ctx, "k", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, _, err = f.Allow(ctx, "k", time.Minute, 1)
	require.NoError(t, err)
	require.False(t, allowed)
}

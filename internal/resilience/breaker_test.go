package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAndRecovers(t *testing.T) {
	ctx := context.Background()
	metrics := NewMetrics("test", prometheus.NewRegistry())
	b := NewBreaker(Config{Target: "redis", MinRequests: 2, FailureRatio: 0.5, OpenFor: time.Minute, Metrics: metrics})
	now := time.Unix(1_700_000_000, 0)
	b.now = func() time.Time { return now }

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Closed, b.State())
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Opened.WithLabelValues("redis")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.State.WithLabelValues("redis")))

	now = now.Add(time.Minute)
	require.True(t, b.Allow(ctx))
	require.Equal(t, HalfOpen, b.State())
	require.False(t, b.Allow(ctx), "half-open admits a single probe")

	b.Report(ctx, true)
	require.Equal(t, Closed, b.State())
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.State.WithLabelValues("redis")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("redis", "half_open", "closed")))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	ctx := context.Background()
	b := NewBreaker(Config{MinRequests: 1, OpenFor: time.Second})
	now := time.Unix(1_700_000_000, 0)
	b.now = func() time.Time { return now }

	b.Report(ctx, false)
	require.Equal(t, Open, b.State())

	now = now.Add(time.Second)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))
}

func TestBreakerDo(t *testing.T) {
	ctx := context.Background()
	b := NewBreaker(Config{MinRequests: 1, OpenFor: time.Hour})
	boom := errors.New("boom")

	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return boom }), boom)
	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return nil }), ErrOpenCircuit)
}

func TestBreakerStaysClosedBelowRatio(t *testing.T) {
	ctx := context.Background()
	b := NewBreaker(Config{MinRequests: 4, FailureRatio: 0.5})
	for i := 0; i < 20; i++ {
		b.Report(ctx, i%4 != 0)
	}
	require.Equal(t, Closed, b.State())
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/djmonitor/internal/adapter/metrics"
	"github.com/pscheid92/djmonitor/internal/platform/retry"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, hook *CircuitBreakerHook, result error) error {
	t.Helper()
	ctx := context.Background()
	process := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return result })
	return process(ctx, goredis.NewStringCmd(ctx, "set", "key", "value"))
}

func shortHook(m *metrics.RedisMetrics) *CircuitBreakerHook {
	return newCircuitBreakerHook(gobreaker.Settings{
		Name:        "redis-test",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     100 * time.Millisecond,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	}, m)
}

func TestCircuitBreakerHook_NormalOperation(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	for range 10 {
		assert.NoError(t, runCmd(t, hook, nil))
	}

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	counts := hook.Counts()
	assert.Equal(t, uint32(10), counts.Requests)
	assert.Equal(t, uint32(10), counts.TotalSuccesses)
	assert.Equal(t, uint32(0), counts.TotalFailures)
}

func TestCircuitBreakerHook_NilIsNotAFailure(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	for range 10 {
		err := runCmd(t, hook, goredis.Nil)
		assert.Equal(t, goredis.Nil, err)
	}

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	assert.Equal(t, uint32(0), hook.Counts().TotalFailures)
}

func TestCircuitBreakerHook_TransientFailures(t *testing.T) {
	hook := NewCircuitBreakerHook(nil)

	for range 2 {
		err := runCmd(t, hook, errors.New("connection refused"))
		assert.EqualError(t, err, "connection refused")
	}

	assert.Equal(t, gobreaker.StateClosed, hook.State())
}

func TestCircuitBreakerHook_OpensAndFailsFast(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRedisMetrics(reg)
	hook := NewCircuitBreakerHook(m)

	for range 5 {
		_ = runCmd(t, hook, errors.New("connection timeout"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CircuitBreakerState))

	called := false
	ctx := context.Background()
	process := hook.ProcessHook(func(context.Context, goredis.Cmder) error {
		called = true
		return nil
	})
	err := process(ctx, goredis.NewStringCmd(ctx, "set", "key", "value"))

	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.False(t, called, "Redis should not be called when circuit is open")
}

func TestCircuitBreakerHook_PipelineFailsFastWhenOpen(t *testing.T) {
	hook := shortHook(nil)
	for range 3 {
		_ = runCmd(t, hook, errors.New("down"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())

	called := false
	pipeline := hook.ProcessPipelineHook(func(context.Context, []goredis.Cmder) error {
		called = true
		return nil
	})
	err := pipeline(context.Background(), nil)

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called)
}

func TestCircuitBreakerHook_RecoversAfterTimeout(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRedisMetrics(reg)
	hook := shortHook(m)

	for range 3 {
		_ = runCmd(t, hook, errors.New("failure"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, hook.State())

	require.NoError(t, runCmd(t, hook, nil))

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	assert.Equal(t, float64(0), testutil.ToFloat64(m.CircuitBreakerState))
}

func TestMetricsHook_RecordsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRedisMetrics(reg)
	hook := NewMetricsHook(m)
	ctx := context.Background()

	ok := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return nil })
	miss := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return goredis.Nil })
	fail := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return errors.New("boom") })

	require.NoError(t, ok(ctx, goredis.NewStringCmd(ctx, "get", "k")))
	require.ErrorIs(t, miss(ctx, goredis.NewStringCmd(ctx, "get", "k")), goredis.Nil)
	require.Error(t, fail(ctx, goredis.NewStringCmd(ctx, "get", "k")))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.OpsTotal.WithLabelValues("get", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OpsTotal.WithLabelValues("get", "error")))
}

func TestClassifyMirrorError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want retry.Action
	}{
		{"breaker open", fmt.Errorf("redis circuit breaker open: %w", gobreaker.ErrOpenState), retry.Stop},
		{"half-open saturated", gobreaker.ErrTooManyRequests, retry.Stop},
		{"deadline", context.DeadlineExceeded, retry.Stop},
		{"cancelled", context.Canceled, retry.Stop},
		{"connection refused", errors.New("dial tcp: connection refused"), retry.Retry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyMirrorError(tt.err))
		})
	}
}

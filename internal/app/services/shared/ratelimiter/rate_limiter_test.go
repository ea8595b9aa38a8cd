package ratelimiter

import (
	"context"
	"medbridge-service/internal/app/services/shared/redis"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T) *ResourceLimiter {
	t.Helper()
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewResourceLimiter(redis.NewRedisRepository(client), zap.NewNop())
}

func limiterInput(now time.Time) *ApplyResourceLimiterInput {
	return &ApplyResourceLimiterInput{
		ResourceName:      "epic",
		LimiterGroupName:  "ehr-write",
		WindowDurationSec: 60,
		MaxQuota:          3,
		NowUTC:            now,
	}
}

func TestResourceLimiterFixedWindow(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()
	now := time.Date(2026, time.January, 10, 12, 0, 10, 0, time.UTC)

	for i := 0; i < 3; i++ {
		out, err := limiter.ApplyResourceLimiter(ctx, limiterInput(now))
		require.NoError(t, err)
		assert.True(t, out.Allowed, i)
	}

	out, err := limiter.ApplyResourceLimiter(ctx, limiterInput(now))
	require.NoError(t, err)
	assert.False(t, out.Allowed)
	assert.Greater(t, out.RetryAfterSecs, 0)
	assert.LessOrEqual(t, out.RetryAfterSecs, 61)
}

func TestResourceLimiterNewWindowResetsQuota(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()
	now := time.Date(2026, time.January, 10, 12, 0, 10, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_, err := limiter.ApplyResourceLimiter(ctx, limiterInput(now))
		require.NoError(t, err)
	}

	out, err := limiter.ApplyResourceLimiter(ctx, limiterInput(now.Add(time.Minute)))
	require.NoError(t, err)
	assert.True(t, out.Allowed)
}

func TestResourceLimiterIsolatesGroupsAndResources(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()
	now := time.Date(2026, time.January, 10, 12, 0, 10, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_, err := limiter.ApplyResourceLimiter(ctx, limiterInput(now))
		require.NoError(t, err)
	}

	other := limiterInput(now)
	other.ResourceName = "cerner"
	out, err := limiter.ApplyResourceLimiter(ctx, other)
	require.NoError(t, err)
	assert.True(t, out.Allowed)
}

func TestResourceLimiterZeroQuotaDisablesLimiting(t *testing.T) {
	limiter := newTestLimiter(t)
	in := limiterInput(time.Now().UTC())
	in.MaxQuota = 0

	out, err := limiter.ApplyResourceLimiter(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.Allowed)
}

func TestResourceLimiterNilInput(t *testing.T) {
	limiter := newTestLimiter(t)
	out, err := limiter.ApplyResourceLimiter(context.Background(), nil)
	assert.Error(t, err)
	assert.False(t, out.Allowed)
}

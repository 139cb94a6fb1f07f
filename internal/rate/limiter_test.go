package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseLimiter(t *testing.T, l Limiter) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d", i)
		assert.EqualValues(t, 3-i, res.Remaining)
	}
	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	// other keys have their own window
	res, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseLimiter(t, NewRedisLimiter(client, "", 3, time.Hour))
}

func TestMemoryLimiter(t *testing.T) {
	exerciseLimiter(t, NewMemoryLimiter(3, time.Hour))
}

func TestDecide(t *testing.T) {
	res := decide(5, 3, -1, 90*time.Second)
	assert.False(t, res.Allowed)
	assert.Equal(t, 90*time.Second, res.RetryAfter)
	assert.EqualValues(t, 0, res.Remaining)
}

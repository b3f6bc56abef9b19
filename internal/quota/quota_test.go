package quota

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/seoagent/internal/telemetry"
)

func newTestQuota(t *testing.T, now time.Time) (*Quota, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	msk := time.FixedZone("MSK", 3*60*60)

	q := New(client, Config{
		Location: msk,
		Now:      func() time.Time { return now },
		Logger:   telemetry.Discard(),
	})
	return q, mr
}

func TestQuota_Acquire(t *testing.T) {
	now := time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC)
	q, mr := newTestQuota(t, now)
	ctx := context.Background()

	allowed, used := q.Acquire(ctx, 2)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), used)

	allowed, used = q.Acquire(ctx, 2)
	assert.True(t, allowed)
	assert.Equal(t, int64(2), used)

	allowed, used = q.Acquire(ctx, 2)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), used)

	key := "seoagent:quota:2026-10-17"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 48*time.Hour, mr.TTL(key))

	n, err := q.Used(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestQuota_KeyUsesLocation(t *testing.T) {
	// 22:30 UTC 16 октября — уже 17 октября в Москве
	now := time.Date(2026, 10, 16, 22, 30, 0, 0, time.UTC)
	q, _ := newTestQuota(t, now)
	assert.Equal(t, "seoagent:quota:2026-10-17", q.Key(now))
}

func TestQuota_UsedEmpty(t *testing.T) {
	q, _ := newTestQuota(t, time.Now())
	n, err := q.Used(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestQuota_RedisDownAllows(t *testing.T) {
	q, mr := newTestQuota(t, time.Now())
	mr.Close()

	allowed, used := q.Acquire(context.Background(), 1)
	assert.True(t, allowed)
	assert.Equal(t, int64(0), used)
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Options().DB)
	c.Close()

	_, err = NewClient("http://nope")
	assert.Error(t, err)
}

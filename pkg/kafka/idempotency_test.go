package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisIdempotencyStore(client, "catalog:event:", time.Hour)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.True(t, mr.Exists("catalog:event:evt-1"))

	mr.FastForward(2 * time.Hour)
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisIdempotencyStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisIdempotencyStore(client, "x:", time.Minute).Contains(context.Background(), "evt")
	assert.Error(t, err)
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "evt"))
	seen, _ := store.Contains(ctx, "evt")
	assert.True(t, seen)

	now = now.Add(2 * time.Minute)
	seen, _ = store.Contains(ctx, "evt")
	assert.False(t, seen)
}

type brokenStore struct{}

func (brokenStore) Contains(context.Context, string) (bool, error) { return false, errors.New("down") }
func (brokenStore) Add(context.Context, string) error { return errors.New("down") }

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()
	calls := 0
	inner := func(context.Context, *Event) error { calls++; return nil }

	t.Run("duplicates are skipped", func(t *testing.T) {
		calls = 0
		h := IdempotentHandler(NewMemoryIdempotencyStore(time.Hour), inner, quietLogger())
		e := &Event{EventID: "evt-1", EventType: "product.updated"}
		require.NoError(t, h(ctx, e))
		require.NoError(t, h(ctx, e))
		assert.Equal(t, 1, calls)
	})

	t.Run("events without id pass through", func(t *testing.T) {
		calls = 0
		h := IdempotentHandler(NewMemoryIdempotencyStore(time.Hour), inner, quietLogger())
		require.NoError(t, h(ctx, &Event{}))
		require.NoError(t, h(ctx, &Event{}))
		assert.Equal(t, 2, calls)
	})

	t.Run("failures are not recorded", func(t *testing.T) {
		store := NewMemoryIdempotencyStore(time.Hour)
		failing := IdempotentHandler(store, func(context.Context, *Event) error { return errors.New("boom") }, quietLogger())
		assert.Error(t, failing(ctx, &Event{EventID: "evt-2"}))

		seen, _ := store.Contains(ctx, "evt-2")
		assert.False(t, seen)
	})

	t.Run("broken store still processes", func(t *testing.T) {
		calls = 0
		h := IdempotentHandler(brokenStore{}, inner, quietLogger())
		require.NoError(t, h(ctx, &Event{EventID: "evt-3"}))
		assert.Equal(t, 1, calls)
	})
}

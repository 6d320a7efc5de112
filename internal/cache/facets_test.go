package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
)

func newTestCache(t *testing.T) (*RedisFacets, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFacets(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func sampleOptions() *domain.FilterOptions {
	return &domain.FilterOptions{
		Brands:     []string{"AMD", "Intel"},
		PriceRange: domain.PriceRange{Min: 500, Max: 2900},
		Attributes: map[string][]string{"socket": {"AM5", "LGA1700"}},
	}
}

func TestRedisFacets_FilterOptionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, ok := c.FilterOptions(ctx, "Procesoare")
	assert.False(t, ok)

	c.SetFilterOptions(ctx, "Procesoare", sampleOptions())

	got, ok := c.FilterOptions(ctx, "Procesoare")
	require.True(t, ok)
	assert.Equal(t, sampleOptions(), got)

	assert.True(t, mr.Exists("catalog:facets:0:filter:procesoare"))
	assert.Equal(t, time.Minute, mr.TTL("catalog:facets:0:filter:procesoare"))

	_, ok = c.FilterOptions(ctx, "Placi video")
	assert.False(t, ok, "categories are cached separately")
}

func TestRedisFacets_AllCategoriesKey(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	c.SetFilterOptions(ctx, "", sampleOptions())
	assert.True(t, mr.Exists("catalog:facets:0:filter:_"))
}

func TestRedisFacets_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	c.SetCategoryCounts(ctx, map[string]int{"Stocare": 3})
	_, ok := c.CategoryCounts(ctx)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok = c.CategoryCounts(ctx)
	assert.False(t, ok)
}

func TestRedisFacets_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	c.SetFilterOptions(ctx, "Procesoare", sampleOptions())
	c.SetCategoryCounts(ctx, map[string]int{"Procesoare": 2})

	require.NoError(t, c.Invalidate(ctx))

	_, ok := c.FilterOptions(ctx, "Procesoare")
	assert.False(t, ok)
	_, ok = c.CategoryCounts(ctx)
	assert.False(t, ok)

	c.SetCategoryCounts(ctx, map[string]int{"Procesoare": 5})
	counts, ok := c.CategoryCounts(ctx)
	require.True(t, ok)
	assert.Equal(t, 5, counts["Procesoare"])
}

func TestRedisFacets_CorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set("catalog:facets:0:category-counts", "{not json"))

	_, ok := c.CategoryCounts(ctx)
	assert.False(t, ok)
}

func TestRedisFacets_UnavailableIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	c.SetFilterOptions(ctx, "Procesoare", sampleOptions())
	_, ok := c.FilterOptions(ctx, "Procesoare")
	assert.False(t, ok)
	assert.Error(t, c.Invalidate(ctx))
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Facets = Nop{}

	c.SetFilterOptions(ctx, "x", sampleOptions())
	_, ok := c.FilterOptions(ctx, "x")
	assert.False(t, ok)
	_, ok = c.CategoryCounts(ctx)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx))
}

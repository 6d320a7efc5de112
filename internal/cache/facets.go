// Package cache holds short-lived copies of derived catalog data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/slug"
)

// DefaultTTL bounds how long a facet result may be served after it was
// computed.
const DefaultTTL = 60 * time.Second

const (
	keyPrefix     = "catalog:facets"
	generationKey = keyPrefix + ":generation"
)

// Facets caches filter options and category counts. Lookups report a miss
// on any backend failure; callers then compute the value from the store.
type Facets interface {
	FilterOptions(ctx context.Context, category string) (*domain.FilterOptions, bool)
	SetFilterOptions(ctx context.Context, category string, opts *domain.FilterOptions)
	CategoryCounts(ctx context.Context) (map[string]int, bool)
	SetCategoryCounts(ctx context.Context, counts map[string]int)
	Invalidate(ctx context.Context) error
}

// RedisFacets stores entries under a generation number. Invalidate bumps
// the generation, which orphans every older entry until its TTL expires.
type RedisFacets struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

var _ Facets = (*RedisFacets)(nil)

// NewRedisFacets returns a Redis-backed facet cache. A ttl of zero selects
// DefaultTTL.
func NewRedisFacets(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisFacets {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisFacets{client: client, ttl: ttl, logger: logger}
}

func (c *RedisFacets) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisFacets) key(ctx context.Context, parts ...string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", fmt.Errorf("read cache generation: %w", err)
	}
	return keyPrefix + ":" + strconv.FormatInt(gen, 10) + ":" + slug.Join(parts...), nil
}

func (c *RedisFacets) get(ctx context.Context, out any, parts ...string) bool {
	key, err := c.key(ctx, parts...)
	if err != nil {
		c.logger.WarnContext(ctx, "facet cache unavailable", slog.String("error", err.Error()))
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "facet cache get failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.WarnContext(ctx, "facet cache entry corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

func (c *RedisFacets) set(ctx context.Context, v any, parts ...string) {
	key, err := c.key(ctx, parts...)
	if err != nil {
		c.logger.WarnContext(ctx, "facet cache unavailable", slog.String("error", err.Error()))
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.WarnContext(ctx, "facet cache marshal failed", slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "facet cache set failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// FilterOptions returns the cached options for category.
func (c *RedisFacets) FilterOptions(ctx context.Context, category string) (*domain.FilterOptions, bool) {
	var opts domain.FilterOptions
	if !c.get(ctx, &opts, "filter", category) {
		return nil, false
	}
	return &opts, true
}

// SetFilterOptions caches opts for category.
func (c *RedisFacets) SetFilterOptions(ctx context.Context, category string, opts *domain.FilterOptions) {
	c.set(ctx, opts, "filter", category)
}

// CategoryCounts returns the cached category counts.
func (c *RedisFacets) CategoryCounts(ctx context.Context) (map[string]int, bool) {
	var counts map[string]int
	if !c.get(ctx, &counts, "category-counts") {
		return nil, false
	}
	return counts, true
}

// SetCategoryCounts caches counts.
func (c *RedisFacets) SetCategoryCounts(ctx context.Context, counts map[string]int) {
	c.set(ctx, counts, "category-counts")
}

// Invalidate drops every cached entry.
func (c *RedisFacets) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("invalidate facet cache: %w", err)
	}
	return nil
}

// Nop is a Facets that never stores anything.
type Nop struct{}

var _ Facets = Nop{}

func (Nop) FilterOptions(context.Context, string) (*domain.FilterOptions, bool) { return nil, false }
func (Nop) SetFilterOptions(context.Context, string, *domain.FilterOptions)     {}
func (Nop) CategoryCounts(context.Context) (map[string]int, bool)               { return nil, false }
func (Nop) SetCategoryCounts(context.Context, map[string]int)                   {}
func (Nop) Invalidate(context.Context) error                                    { return nil }

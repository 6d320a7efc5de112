package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/cache"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine/memory"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
)

var errStoreDown = errors.New("store down")

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store       *memory.Engine
	catalog     *CatalogService
	facets      *FacetService
	suggestions *SuggestionService
}

func newFixture(t *testing.T, products ...domain.Product) *fixture {
	t.Helper()
	return newFixtureWith(t, memory.New(), cache.Nop{}, products...)
}

func newFixtureWith(t *testing.T, store *memory.Engine, facets cache.Facets, products ...domain.Product) *fixture {
	t.Helper()
	require.NoError(t, store.BulkIndex(context.Background(), products))

	l := newTestLogger()
	sugg := NewSuggestionService(store, []string{"RTX 4070", "DDR5"}, l)
	return &fixture{
		store:       store,
		catalog:     NewCatalogService(store, sugg, facets, l),
		facets:      NewFacetService(store, facets, []string{"Procesoare", "Placi video", "Stocare"}, l),
		suggestions: sugg,
	}
}

// product builds a product whose creation time is offset by age minutes
// from baseTime, so newer products have larger age values.
func product(id, name, brand, category string, price float64, age int) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        name,
		Brand:       brand,
		Category:    category,
		Description: fmt.Sprintf("%s %s", brand, name),
		Price:       price,
		Stock:       1,
		Attributes:  map[string]string{},
		CreatedAt:   baseTime.Add(time.Duration(age) * time.Minute),
		UpdatedAt:   baseTime,
	}
}

func hardwareCatalog() []domain.Product {
	cpu1 := product("c1", "Ryzen 5 7600", "AMD", "Procesoare", 1100, 1)
	cpu1.Attributes = map[string]string{"socket": "AM5", "cores": "6"}
	cpu2 := product("c2", "Ryzen 7 7800X3D", "AMD", "Procesoare", 2000, 2)
	cpu2.Attributes = map[string]string{"socket": "AM5", "cores": "8"}
	cpu3 := product("c3", "Core i5-13400F", "Intel", "Procesoare", 900, 3)
	cpu3.Attributes = map[string]string{"socket": "LGA1700", "cores": "10"}
	cpu3.Stock = 0
	gpu1 := product("g1", "RTX 4070", "ASUS", "Placi video", 3200, 4)
	gpu1.Attributes = map[string]string{"memory": "12GB"}
	gpu2 := product("g2", "RTX 4080", "Gigabyte", "Placi video", 5600, 5)
	gpu2.Attributes = map[string]string{"memory": "16GB"}
	gpu3 := product("g3", "GTX 1660", "MSI", "Placi video", 900, 6)
	gpu3.Attributes = map[string]string{"memory": "6GB"}
	ssd := product("s1", "990 PRO 2TB", "Samsung", "Stocare", 899, 7)
	return []domain.Product{cpu1, cpu2, cpu3, gpu1, gpu2, gpu3, ssd}
}

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func ptr(f float64) *float64 { return &f }

// buildAll is the unpaginated query over the whole catalog.
func buildAll(sort domain.SortMode) *query.Query {
	return query.New().OrderBy(sort).Build()
}

// failingCatalog wraps a working catalog and fails the selected reads.
type failingCatalog struct {
	engine.Catalog
	failFind     bool
	failDistinct bool
	failFacets   bool
}

func (f *failingCatalog) Find(ctx context.Context, q *query.Query) ([]domain.Product, int, error) {
	if f.failFind {
		return nil, 0, errStoreDown
	}
	return f.Catalog.Find(ctx, q)
}

func (f *failingCatalog) Distinct(ctx context.Context, field query.Field, conds []query.Condition, limit int) ([]string, error) {
	if f.failDistinct {
		return nil, errStoreDown
	}
	return f.Catalog.Distinct(ctx, field, conds, limit)
}

func (f *failingCatalog) PriceRange(ctx context.Context, conds []query.Condition) (domain.PriceRange, error) {
	if f.failFacets {
		return domain.PriceRange{}, errStoreDown
	}
	return f.Catalog.PriceRange(ctx, conds)
}

func (f *failingCatalog) CategoryCounts(ctx context.Context) (map[string]int, error) {
	if f.failFacets {
		return nil, errStoreDown
	}
	return f.Catalog.CategoryCounts(ctx)
}

// countingCache records invalidations.
type countingCache struct {
	cache.Nop
	invalidations int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

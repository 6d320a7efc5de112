package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/cache"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
)

// FacetService derives filter choices and category counts from the store.
type FacetService struct {
	catalog    engine.Catalog
	cache      cache.Facets
	categories []string
	logger     *slog.Logger
}

// NewFacetService creates a facet service. categories is the static table
// of known categories that always appear in CategoryCounts.
func NewFacetService(catalog engine.Catalog, facets cache.Facets, categories []string, logger *slog.Logger) *FacetService {
	if facets == nil {
		facets = cache.Nop{}
	}
	return &FacetService{
		catalog:    catalog,
		cache:      facets,
		categories: append([]string(nil), categories...),
		logger:     logger,
	}
}

// FilterOptions returns the brands, price range and attribute values present
// among products of category, or of the whole catalog when category is
// empty. An empty scope yields empty lists and a 0/0 price range.
func (s *FacetService) FilterOptions(ctx context.Context, category string) (*domain.FilterOptions, error) {
	category = strings.TrimSpace(category)
	if opts, ok := s.cache.FilterOptions(ctx, category); ok {
		return normalizeOptions(opts), nil
	}

	conds := query.Scope("", category)
	opts := domain.EmptyFilterOptions()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		brands, err := s.catalog.Distinct(gctx, query.FieldBrand, conds, 0)
		if err != nil {
			return fmt.Errorf("brands: %w", err)
		}
		opts.Brands = brands
		return nil
	})
	g.Go(func() error {
		r, err := s.catalog.PriceRange(gctx, conds)
		if err != nil {
			return fmt.Errorf("price range: %w", err)
		}
		opts.PriceRange = r
		return nil
	})
	g.Go(func() error {
		attrs, err := s.catalog.AttributeValues(gctx, conds)
		if err != nil {
			return fmt.Errorf("attributes: %w", err)
		}
		opts.Attributes = attrs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("filter options: %w", err)
	}

	opts = normalizeOptions(opts)
	s.cache.SetFilterOptions(ctx, category, opts)
	return opts, nil
}

func normalizeOptions(opts *domain.FilterOptions) *domain.FilterOptions {
	if opts.Brands == nil {
		opts.Brands = []string{}
	}
	if opts.Attributes == nil {
		opts.Attributes = map[string][]string{}
	}
	return opts
}

// CategoryCounts returns the number of products per category. Categories of
// the static table are always present, with 0 when they hold no products.
func (s *FacetService) CategoryCounts(ctx context.Context) (map[string]int, error) {
	if counts, ok := s.cache.CategoryCounts(ctx); ok {
		return counts, nil
	}

	stored, err := s.catalog.CategoryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}

	counts := make(map[string]int, len(s.categories)+len(stored))
	for _, c := range s.categories {
		counts[c] = 0
	}
	for c, n := range stored {
		counts[c] = n
	}

	s.cache.SetCategoryCounts(ctx, counts)
	return counts, nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/cache"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
	apperrors "github.com/johnnyy06/ComputerBazaar-sub000/pkg/errors"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/pagination"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/validator"
)

// CatalogService answers browse and search queries and maintains the
// catalog store.
type CatalogService struct {
	catalog     engine.Catalog
	suggestions *SuggestionService
	facets      cache.Facets
	logger      *slog.Logger
	now         func() time.Time
}

// NewCatalogService creates a catalog service. A nil facets cache disables
// cache invalidation.
func NewCatalogService(catalog engine.Catalog, suggestions *SuggestionService, facets cache.Facets, logger *slog.Logger) *CatalogService {
	if facets == nil {
		facets = cache.Nop{}
	}
	return &CatalogService{
		catalog:     catalog,
		suggestions: suggestions,
		facets:      facets,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Browse returns one page of products matching spec.
func (s *CatalogService) Browse(ctx context.Context, spec domain.QuerySpec) (*domain.ResultPage, error) {
	// A single bound is completed from the catalog-wide range.
	var bounds domain.PriceRange
	if spec.HasPriceBound() && (spec.MinPrice == nil || spec.MaxPrice == nil) {
		r, err := s.catalog.PriceRange(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("browse: resolve price bounds: %w", err)
		}
		bounds = r
	}

	q := query.Build(spec, bounds, pagination.ForPage(spec.Page, pagination.Browse))
	products, total, err := s.catalog.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("browse: %w", err)
	}

	w := pagination.Paginate(total, pagination.Browse, spec.Page)
	s.logger.DebugContext(ctx, "catalog query executed",
		slog.String("keyword", spec.Keyword),
		slog.String("category", spec.Category),
		slog.String("sort", string(spec.Sort)),
		slog.Int("page", w.Page),
		slog.Int("total", total),
	)

	return &domain.ResultPage{
		Products: products,
		Total:    total,
		Page:     w.Page,
		Pages:    w.TotalPages,
	}, nil
}

// Search is Browse over keyword, category and sort, enriched with related
// category and brand terms. A failure to find related terms never fails the
// search.
func (s *CatalogService) Search(ctx context.Context, spec domain.QuerySpec) (*domain.SearchPage, error) {
	page, err := s.Browse(ctx, domain.QuerySpec{
		Keyword:  spec.Keyword,
		Category: spec.Category,
		Sort:     spec.Sort,
		Page:     spec.Page,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return &domain.SearchPage{
		ResultPage:  *page,
		Suggestions: s.suggestions.RelatedTerms(ctx, spec.Keyword),
	}, nil
}

// ProductInput is a product write coming from the admin API, an event or
// the reindex source.
type ProductInput struct {
	ID          string            `json:"_id" validate:"required,max=128"`
	Name        string            `json:"name" validate:"required,max=512"`
	Brand       string            `json:"brand" validate:"required,max=128"`
	Category    string            `json:"category" validate:"required,max=128"`
	Description string            `json:"description" validate:"max=8000"`
	Price       float64           `json:"price" validate:"gte=0"`
	Stock       int               `json:"countInStock" validate:"gte=0"`
	Rating      float64           `json:"rating" validate:"gte=0,lte=5"`
	NumReviews  int               `json:"numReviews" validate:"gte=0"`
	Image       string            `json:"image,omitempty" validate:"omitempty,url"`
	Attributes  map[string]string `json:"specifications"`
	CreatedAt   *time.Time        `json:"createdAt,omitempty"`
}

// BulkInput is the body of a bulk index request.
type BulkInput struct {
	Products []ProductInput `json:"products" validate:"required,min=1,max=500,dive"`
}

func (s *CatalogService) toProduct(in *ProductInput) domain.Product {
	now := s.now()
	// A zero CreatedAt tells the store to keep the stored creation time, or
	// to stamp one on insert.
	var created time.Time
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		created = in.CreatedAt.UTC()
	}
	attrs := make(map[string]string, len(in.Attributes))
	for k, v := range in.Attributes {
		attrs[k] = v
	}
	return domain.Product{
		ID:          in.ID,
		Name:        in.Name,
		Brand:       in.Brand,
		Category:    in.Category,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Rating:      in.Rating,
		NumReviews:  in.NumReviews,
		Image:       in.Image,
		Attributes:  attrs,
		CreatedAt:   created,
		UpdatedAt:   now,
	}
}

// IndexProduct validates and upserts one product.
func (s *CatalogService) IndexProduct(ctx context.Context, in *ProductInput) error {
	if err := validator.Validate(in); err != nil {
		return err
	}

	p := s.toProduct(in)
	if err := s.catalog.Index(ctx, &p); err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "product indexed",
		slog.String("product_id", p.ID),
		slog.String("name", p.Name),
	)
	return nil
}

// DeleteProduct removes a product. Unknown ids are not an error.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("product id is required")
	}

	if err := s.catalog.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// BulkIndex validates and upserts a batch of products.
func (s *CatalogService) BulkIndex(ctx context.Context, in *BulkInput) error {
	if err := validator.Validate(in); err != nil {
		return err
	}

	products := make([]domain.Product, 0, len(in.Products))
	for i := range in.Products {
		products = append(products, s.toProduct(&in.Products[i]))
	}
	if err := s.catalog.BulkIndex(ctx, products); err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "bulk index completed", slog.Int("count", len(products)))
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.facets.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "facet cache invalidation failed", slog.String("error", err.Error()))
	}
}

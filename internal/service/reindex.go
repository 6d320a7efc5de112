package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	apperrors "github.com/johnnyy06/ComputerBazaar-sub000/pkg/errors"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/validator"
)

// ReindexPageSize is the per_page value requested from the product source.
const ReindexPageSize = 100

// maxReindexPages stops a runaway source that never reports its last page.
const maxReindexPages = 10000

// ProductSource fetches JSON documents from the product service.
type ProductSource interface {
	GetJSON(ctx context.Context, url string, out any) error
}

type sourcePage struct {
	Data       []ProductInput `json:"data"`
	TotalPages int            `json:"total_pages"`
}

// Reindexer copies every product from the product service into the store.
type Reindexer struct {
	catalog *CatalogService
	source  ProductSource
	baseURL string
	running atomic.Bool
	logger  *slog.Logger
}

// NewReindexer creates a reindexer reading from baseURL through source.
func NewReindexer(catalog *CatalogService, source ProductSource, baseURL string, logger *slog.Logger) *Reindexer {
	return &Reindexer{
		catalog: catalog,
		source:  source,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Running reports whether a reindex is in progress.
func (r *Reindexer) Running() bool {
	return r.running.Load()
}

// Reindex pages through the product source and bulk indexes every valid
// product. Only one reindex runs at a time. It returns the number of
// products written.
func (r *Reindexer) Reindex(ctx context.Context) (int, error) {
	if !r.running.CompareAndSwap(false, true) {
		return 0, apperrors.Conflict("a reindex is already running")
	}
	defer r.running.Store(false)

	return r.run(ctx)
}

func (r *Reindexer) run(ctx context.Context) (int, error) {
	indexed := 0
	for page := 1; page <= maxReindexPages; page++ {
		url := fmt.Sprintf("%s/api/products?page=%d&per_page=%d", r.baseURL, page, ReindexPageSize)

		var resp sourcePage
		if err := r.source.GetJSON(ctx, url, &resp); err != nil {
			return indexed, fmt.Errorf("reindex: fetch page %d: %w", page, err)
		}

		products := r.validProducts(ctx, page, resp.Data)
		if len(products) > 0 {
			if err := r.catalog.catalog.BulkIndex(ctx, products); err != nil {
				return indexed, fmt.Errorf("reindex: index page %d: %w", page, err)
			}
			indexed += len(products)
		}

		r.logger.DebugContext(ctx, "reindex page done",
			slog.Int("page", page),
			slog.Int("total_pages", resp.TotalPages),
			slog.Int("products", len(products)),
		)

		if len(resp.Data) == 0 || page >= resp.TotalPages {
			break
		}
	}

	r.catalog.invalidate(ctx)
	r.logger.InfoContext(ctx, "reindex completed", slog.Int("indexed", indexed))
	return indexed, nil
}

func (r *Reindexer) validProducts(ctx context.Context, page int, items []ProductInput) []domain.Product {
	products := make([]domain.Product, 0, len(items))
	for i := range items {
		if err := validator.Validate(&items[i]); err != nil {
			r.logger.WarnContext(ctx, "skipping invalid product",
				slog.Int("page", page),
				slog.String("product_id", items[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		products = append(products, r.catalog.toProduct(&items[i]))
	}
	return products
}

// Start runs a reindex in the background, detached from the caller's
// cancellation. It fails fast when one is already running.
func (r *Reindexer) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return apperrors.Conflict("a reindex is already running")
	}
	go func() {
		defer r.running.Store(false)
		bg := context.WithoutCancel(ctx)
		if _, err := r.run(bg); err != nil {
			r.logger.ErrorContext(bg, "reindex failed", slog.String("error", err.Error()))
		}
	}()
	return nil
}

package engine

import (
	"context"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
)

// Catalog is the product store the query layer reads from. Implementations
// may use MongoDB, Elasticsearch, in-memory storage, or other backends.
type Catalog interface {
	// Index adds or updates a single product.
	Index(ctx context.Context, product *domain.Product) error

	// Delete removes a product by its ID. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// BulkIndex adds or updates multiple products.
	BulkIndex(ctx context.Context, products []domain.Product) error

	// Find returns the page of products selected by q together with the
	// total number of products matching q's conditions.
	Find(ctx context.Context, q *query.Query) ([]domain.Product, int, error)

	// Distinct returns up to limit distinct non-empty values of field among
	// products matching conds, in ascending order. A limit of 0 means no limit.
	Distinct(ctx context.Context, field query.Field, conds []query.Condition, limit int) ([]string, error)

	// PriceRange returns the lowest and highest price among products
	// matching conds, or a zero range when nothing matches.
	PriceRange(ctx context.Context, conds []query.Condition) (domain.PriceRange, error)

	// AttributeValues returns, for each attribute key present on products
	// matching conds, the ascending distinct set of its values.
	AttributeValues(ctx context.Context, conds []query.Condition) (map[string][]string, error)

	// CategoryCounts returns the number of products per category.
	CategoryCounts(ctx context.Context) (map[string]int, error)
}

// Pinger is implemented by catalogs backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

package memory

import (
	"cmp"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
)

// Engine is an in-memory implementation of the Catalog interface.
// It evaluates query conditions directly against stored products.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// New creates a new in-memory catalog.
func New() *Engine {
	return &Engine{
		products: make(map[string]domain.Product),
	}
}

// Index adds or updates a single product. A product without a creation time
// keeps the stored one, or gets the current time when it is new.
func (e *Engine) Index(_ context.Context, product *domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.put(*product)
	return nil
}

// Delete removes a product by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.products, id)
	return nil
}

// BulkIndex adds or updates multiple products.
func (e *Engine) BulkIndex(_ context.Context, products []domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range products {
		e.put(products[i])
	}
	return nil
}

// put stores p. The caller holds the write lock.
func (e *Engine) put(p domain.Product) {
	if p.CreatedAt.IsZero() {
		if old, ok := e.products[p.ID]; ok {
			p.CreatedAt = old.CreatedAt
		} else {
			p.CreatedAt = time.Now().UTC()
		}
	}
	e.products[p.ID] = p
}

// Find evaluates q against the stored products.
func (e *Engine) Find(_ context.Context, q *query.Query) ([]domain.Product, int, error) {
	matched := e.filter(q.Conditions)
	sortProducts(matched, q.Sort)

	total := len(matched)

	start := min(max(q.Skip, 0), total)
	end := total
	if q.Limit > 0 && q.Limit < total-start {
		end = start + q.Limit
	}

	page := make([]domain.Product, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

// Distinct returns the ascending distinct values of field among matches.
func (e *Engine) Distinct(_ context.Context, field query.Field, conds []query.Condition, limit int) ([]string, error) {
	seen := make(map[string]struct{})
	for _, p := range e.filter(conds) {
		if v := query.StringValue(&p, field); v != "" {
			seen[v] = struct{}{}
		}
	}

	values := setToSorted(seen)
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}

// PriceRange returns the price bounds among matches.
func (e *Engine) PriceRange(_ context.Context, conds []query.Condition) (domain.PriceRange, error) {
	var r domain.PriceRange
	for i, p := range e.filter(conds) {
		if i == 0 || p.Price < r.Min {
			r.Min = p.Price
		}
		if i == 0 || p.Price > r.Max {
			r.Max = p.Price
		}
	}
	return r, nil
}

// AttributeValues collects the distinct values of every attribute key seen
// among matches.
func (e *Engine) AttributeValues(_ context.Context, conds []query.Condition) (map[string][]string, error) {
	sets := make(map[string]map[string]struct{})
	for _, p := range e.filter(conds) {
		for k, v := range p.Attributes {
			if k == "" || v == "" {
				continue
			}
			if sets[k] == nil {
				sets[k] = make(map[string]struct{})
			}
			sets[k][v] = struct{}{}
		}
	}

	out := make(map[string][]string, len(sets))
	for k, set := range sets {
		out[k] = setToSorted(set)
	}
	return out, nil
}

// CategoryCounts counts products per category.
func (e *Engine) CategoryCounts(_ context.Context) (map[string]int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range e.products {
		counts[p.Category]++
	}
	return counts, nil
}

// Len returns the number of stored products.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.products)
}

// filter returns a snapshot of the products matching every condition.
func (e *Engine) filter(conds []query.Condition) []domain.Product {
	e.mu.RLock()
	defer e.mu.RUnlock()

	q := query.Query{Conditions: conds}
	matched := make([]domain.Product, 0)
	for _, p := range e.products {
		if q.Match(&p) {
			matched = append(matched, p)
		}
	}
	return matched
}

// sortProducts orders products by the given keys. Map iteration order is
// random, so the trailing id key is what makes the result deterministic.
func sortProducts(products []domain.Product, keys []query.SortKey) {
	sort.SliceStable(products, func(i, j int) bool {
		for _, k := range keys {
			c := compare(&products[i], &products[j], k.Field)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b *domain.Product, f query.Field) int {
	switch f {
	case query.FieldPrice:
		return cmp.Compare(a.Price, b.Price)
	case query.FieldStock:
		return cmp.Compare(a.Stock, b.Stock)
	case query.FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return cmp.Compare(query.StringValue(a, f), query.StringValue(b, f))
	}
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

package query

import (
	"strings"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/pagination"
)

// SearchFields are the fields a keyword is matched against on the search
// and browse paths.
var SearchFields = []Field{FieldName, FieldDescription, FieldBrand}

// SortKey is one ORDER BY component.
type SortKey struct {
	Field Field
	Desc  bool
}

// Query is a store-agnostic catalog query: an AND of conditions, a total
// ordering and an optional page window.
type Query struct {
	Conditions []Condition
	Sort       []SortKey
	Skip       int
	Limit      int // 0 means no limit
}

// Match reports whether p satisfies every condition of the query.
func (q *Query) Match(p *domain.Product) bool {
	for _, c := range q.Conditions {
		if !c.Match(p) {
			return false
		}
	}
	return true
}

// Builder constructs a Query with a fluent API. Every method returns a new
// Builder, so a partially built query can be reused as a base.
type Builder struct {
	conditions []Condition
	sort       []SortKey
	skip       int
	limit      int
}

// New creates an empty Builder ordered by relevance.
func New() *Builder {
	return &Builder{sort: SortKeys(domain.SortRelevance)}
}

// Where adds a condition. Multiple calls are combined with AND logic.
func (b *Builder) Where(c Condition) *Builder {
	nb := b.clone()
	nb.conditions = append(nb.conditions, c)
	return nb
}

// OrderBy replaces the ordering with the keys for the given sort mode.
func (b *Builder) OrderBy(mode domain.SortMode) *Builder {
	nb := b.clone()
	nb.sort = SortKeys(mode)
	return nb
}

// Window applies a pagination window.
func (b *Builder) Window(w pagination.Window) *Builder {
	nb := b.clone()
	nb.skip = w.Skip
	nb.limit = w.Limit
	return nb
}

// Limit caps the number of results without skipping any.
func (b *Builder) Limit(n int) *Builder {
	nb := b.clone()
	nb.skip = 0
	nb.limit = n
	return nb
}

// Build returns the constructed Query.
func (b *Builder) Build() *Query {
	q := &Query{
		Conditions: make([]Condition, len(b.conditions)),
		Sort:       make([]SortKey, len(b.sort)),
		Skip:       b.skip,
		Limit:      b.limit,
	}
	copy(q.Conditions, b.conditions)
	copy(q.Sort, b.sort)
	return q
}

func (b *Builder) clone() *Builder {
	nb := &Builder{
		conditions: make([]Condition, len(b.conditions)),
		sort:       make([]SortKey, len(b.sort)),
		skip:       b.skip,
		limit:      b.limit,
	}
	copy(nb.conditions, b.conditions)
	copy(nb.sort, b.sort)
	return nb
}

// SortKeys returns the ordering for a sort mode. Every ordering ends with
// the id ascending so pages stay stable across repeated queries.
func SortKeys(mode domain.SortMode) []SortKey {
	var keys []SortKey
	switch mode {
	case domain.SortPriceAsc:
		keys = []SortKey{{Field: FieldPrice}}
	case domain.SortPriceDesc:
		keys = []SortKey{{Field: FieldPrice, Desc: true}}
	case domain.SortNameAsc:
		keys = []SortKey{{Field: FieldName}}
	case domain.SortNameDesc:
		keys = []SortKey{{Field: FieldName, Desc: true}}
	default:
		// relevance and newest are both recency ordered.
		keys = []SortKey{{Field: FieldCreatedAt, Desc: true}}
	}
	return append(keys, SortKey{Field: FieldID})
}

// Scope returns the conditions shared by the browse, search and facet
// paths for an optional keyword and category.
func Scope(keyword, category string) []Condition {
	var conds []Condition
	if kw := strings.TrimSpace(keyword); kw != "" {
		conds = append(conds, Contains(kw, SearchFields...))
	}
	if cat := strings.TrimSpace(category); cat != "" {
		conds = append(conds, Contains(cat, FieldCategory))
	}
	return conds
}

// Build translates a normalized spec into a Query. bounds supplies the
// catalog-wide price range used for a missing bound; it is only read when
// the spec carries at least one bound.
func Build(spec domain.QuerySpec, bounds domain.PriceRange, w pagination.Window) *Query {
	b := New().OrderBy(spec.Sort).Window(w)

	for _, c := range Scope(spec.Keyword, spec.Category) {
		b = b.Where(c)
	}

	if len(spec.Brands) > 0 {
		b = b.Where(In{Field: FieldBrand, Values: spec.Brands})
	}

	if spec.HasPriceBound() {
		r := Range{Field: FieldPrice, Min: bounds.Min, Max: bounds.Max}
		if spec.MinPrice != nil {
			r.Min = *spec.MinPrice
		}
		if spec.MaxPrice != nil {
			r.Max = *spec.MaxPrice
		}
		b = b.Where(r)
	}

	if spec.InStock {
		b = b.Where(Positive{Field: FieldStock})
	}

	for _, name := range sortedKeys(spec.Attributes) {
		values := spec.Attributes[name]
		if len(values) == 0 {
			continue
		}
		b = b.Where(Attribute{Name: name, Values: values})
	}

	return b.Build()
}

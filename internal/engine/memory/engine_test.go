package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/pagination"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestProduct(name, brand, category string, price float64) domain.Product {
	return domain.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Brand:       brand,
		Category:    category,
		Description: name + " by " + brand,
		Price:       price,
		Stock:       5,
		Attributes:  map[string]string{},
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}

func seed(t *testing.T, eng *Engine, products ...domain.Product) {
	t.Helper()
	require.NoError(t, eng.BulkIndex(context.Background(), products))
}

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

// ---------------------------------------------------------------------------
// Index / Delete
// ---------------------------------------------------------------------------

func TestEngine_IndexAndDelete(t *testing.T) {
	ctx := context.Background()
	eng := New()

	p := newTestProduct("RTX 4070", "ASUS", "Placi video", 3200)
	require.NoError(t, eng.Index(ctx, &p))
	assert.Equal(t, 1, eng.Len())

	p.Price = 3000
	require.NoError(t, eng.Index(ctx, &p))
	assert.Equal(t, 1, eng.Len(), "index is an upsert")

	require.NoError(t, eng.Delete(ctx, p.ID))
	assert.Equal(t, 0, eng.Len())

	assert.NoError(t, eng.Delete(ctx, "missing"), "deleting an unknown id is not an error")
}

// ---------------------------------------------------------------------------
// Find
// ---------------------------------------------------------------------------

func TestEngine_IndexKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	eng := New()

	p := newTestProduct("RTX 4070", "ASUS", "Placi video", 3200)
	require.NoError(t, eng.Index(ctx, &p))

	update := p
	update.CreatedAt = time.Time{}
	update.Price = 2999
	require.NoError(t, eng.Index(ctx, &update))

	fresh := newTestProduct("RTX 4080", "ASUS", "Placi video", 5200)
	fresh.CreatedAt = time.Time{}
	seed(t, eng, fresh)

	products, _, err := eng.Find(ctx, query.New().OrderBy(domain.SortPriceAsc).Build())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 2999.0, products[0].Price)
	assert.Equal(t, baseTime, products[0].CreatedAt)
	assert.False(t, products[1].CreatedAt.IsZero())
}

func TestEngine_Find_KeywordSubstring(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seed(t, eng,
		newTestProduct("GeForce RTX 4070", "ASUS", "Placi video", 3200),
		newTestProduct("Radeon RX 7800 XT", "Sapphire", "Placi video", 2800),
	)

	q := query.New().Where(query.Contains("rtx", query.SearchFields...)).Build()
	products, total, err := eng.Find(ctx, q)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "GeForce RTX 4070", products[0].Name)
}

func TestEngine_Find_PriceAscWithIDTieBreak(t *testing.T) {
	ctx := context.Background()
	eng := New()

	a := newTestProduct("A", "X", "C", 500)
	b := newTestProduct("B", "X", "C", 200)
	c := newTestProduct("C", "X", "C", 800)
	d := newTestProduct("D", "X", "C", 500)
	a.ID, b.ID, c.ID, d.ID = "p-3", "p-1", "p-4", "p-2"
	seed(t, eng, a, b, c, d)

	products, _, err := eng.Find(ctx, query.New().OrderBy(domain.SortPriceAsc).Build())
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1", "p-2", "p-3", "p-4"}, ids(products))

	products, _, err = eng.Find(ctx, query.New().OrderBy(domain.SortPriceDesc).Build())
	require.NoError(t, err)
	assert.Equal(t, []string{"p-4", "p-2", "p-3", "p-1"}, ids(products))
}

func TestEngine_Find_RelevanceIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	eng := New()

	older := newTestProduct("Old", "X", "C", 1)
	newer := newTestProduct("New", "X", "C", 1)
	newer.CreatedAt = baseTime.Add(time.Hour)
	seed(t, eng, older, newer)

	products, _, err := eng.Find(ctx, query.New().Build())
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, older.ID}, ids(products))
}

func TestEngine_Find_NameOrdering(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seed(t, eng,
		newTestProduct("Beta", "X", "C", 1),
		newTestProduct("Alpha", "X", "C", 1),
		newTestProduct("Gamma", "X", "C", 1),
	)

	products, _, err := eng.Find(ctx, query.New().OrderBy(domain.SortNameAsc).Build())
	require.NoError(t, err)
	assert.Equal(t, "Alpha", products[0].Name)
	assert.Equal(t, "Gamma", products[2].Name)

	products, _, err = eng.Find(ctx, query.New().OrderBy(domain.SortNameDesc).Build())
	require.NoError(t, err)
	assert.Equal(t, "Gamma", products[0].Name)
}

func TestEngine_Find_PaginationPartition(t *testing.T) {
	ctx := context.Background()
	eng := New()
	for i := 0; i < 30; i++ {
		seed(t, eng, newTestProduct("Product", "X", "C", float64(i%4)))
	}

	base := query.New().OrderBy(domain.SortPriceAsc)
	all, total, err := eng.Find(ctx, base.Build())
	require.NoError(t, err)
	require.Equal(t, 30, total)

	var concatenated []string
	pages := pagination.TotalPages(total, pagination.Browse)
	for p := 1; p <= pages; p++ {
		page, pageTotal, err := eng.Find(ctx, base.Window(pagination.ForPage(p, pagination.Browse)).Build())
		require.NoError(t, err)
		assert.Equal(t, total, pageTotal)
		concatenated = append(concatenated, ids(page)...)
	}

	assert.Equal(t, ids(all), concatenated)
}

func TestEngine_Find_PageBeyondEnd(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seed(t, eng, newTestProduct("Only", "X", "C", 1))

	products, total, err := eng.Find(ctx, query.New().Window(pagination.ForPage(99, 12)).Build())
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 1, total)
}

func TestEngine_Find_HugePageNumber(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seed(t, eng, newTestProduct("A", "X", "C", 1), newTestProduct("B", "X", "C", 2))

	products, total, err := eng.Find(ctx, query.New().Window(pagination.ForPage(math.MaxInt, 12)).Build())
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 2, total)
}

func TestEngine_Find_Idempotent(t *testing.T) {
	ctx := context.Background()
	eng := New()
	for i := 0; i < 10; i++ {
		seed(t, eng, newTestProduct("Same", "X", "C", 100))
	}

	q := query.New().OrderBy(domain.SortPriceAsc).Build()
	first, _, err := eng.Find(ctx, q)
	require.NoError(t, err)
	second, _, err := eng.Find(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, ids(first), ids(second))
}

// ---------------------------------------------------------------------------
// Aggregations
// ---------------------------------------------------------------------------

func TestEngine_Distinct(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seed(t, eng,
		newTestProduct("RTX 4070", "MSI", "Placi video", 1),
		newTestProduct("RTX 4080", "ASUS", "Placi video", 1),
		newTestProduct("RTX 4090", "ASUS", "Placi video", 1),
		newTestProduct("Ryzen 5", "AMD", "Procesoare", 1),
	)

	brands, err := eng.Distinct(ctx, query.FieldBrand, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"AMD", "ASUS", "MSI"}, brands)

	brands, err = eng.Distinct(ctx, query.FieldBrand, []query.Condition{query.Contains("video", query.FieldCategory)}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ASUS"}, brands)
}

func TestEngine_PriceRange(t *testing.T) {
	ctx := context.Background()
	eng := New()

	r, err := eng.PriceRange(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PriceRange{}, r, "empty catalog has a zero range")

	seed(t, eng,
		newTestProduct("A", "X", "C", 150),
		newTestProduct("B", "X", "C", 99.5),
		newTestProduct("C", "X", "D", 1200),
	)

	r, err = eng.PriceRange(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PriceRange{Min: 99.5, Max: 1200}, r)

	r, err = eng.PriceRange(ctx, []query.Condition{query.Contains("c", query.FieldCategory)})
	require.NoError(t, err)
	assert.Equal(t, domain.PriceRange{Min: 99.5, Max: 150}, r)
}

func TestEngine_AttributeValues(t *testing.T) {
	ctx := context.Background()
	eng := New()

	a := newTestProduct("Ryzen 7", "AMD", "Procesoare", 1)
	a.Attributes = map[string]string{"Socket": "AM5", "Nuclee": "8"}
	b := newTestProduct("Ryzen 5", "AMD", "Procesoare", 1)
	b.Attributes = map[string]string{"Socket": "AM4", "Nuclee": "6"}
	c := newTestProduct("Core i5", "Intel", "Procesoare", 1)
	c.Attributes = map[string]string{"Socket": "AM5", "Frecventa": ""}
	seed(t, eng, a, b, c)

	attrs, err := eng.AttributeValues(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"Socket": {"AM4", "AM5"},
		"Nuclee": {"6", "8"},
	}, attrs)
}

func TestEngine_CategoryCounts(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seed(t, eng,
		newTestProduct("A", "X", "Procesoare", 1),
		newTestProduct("B", "X", "Procesoare", 1),
		newTestProduct("C", "X", "Memorii", 1),
	)

	counts, err := eng.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Procesoare": 2, "Memorii": 1}, counts)
}

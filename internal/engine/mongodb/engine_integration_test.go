package mongodb_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine/mongodb"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/database"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/pagination"
)

// newTestEngine connects to MONGODB_URI and uses a throwaway database.
func newTestEngine(t *testing.T) *mongodb.Engine {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping MongoDB integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := database.DefaultMongoConfig()
	cfg.URI = uri
	cfg.Database = fmt.Sprintf("catalog_test_%d", time.Now().UnixNano())

	m, err := database.NewMongo(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.Database.Drop(context.Background())
		_ = m.Close(context.Background())
	})

	eng := mongodb.New(m.Database, "")
	require.NoError(t, eng.EnsureIndexes(ctx))
	return eng
}

func fixture() []domain.Product {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Product{
		{ID: "p1", Name: "Ryzen 7 7800X3D", Brand: "AMD", Category: "Procesoare", Price: 1900, Stock: 3,
			Attributes: map[string]string{"socket": "AM5"}, CreatedAt: at},
		{ID: "p2", Name: "Core i5-13600K", Brand: "Intel", Category: "Procesoare", Price: 1400, Stock: 0,
			Attributes: map[string]string{"socket": "LGA1700"}, CreatedAt: at.Add(time.Hour)},
		{ID: "p3", Name: "RTX 4070", Brand: "ASUS", Category: "Placi video", Price: 3200, Stock: 2,
			Attributes: map[string]string{"memory": "12GB"}, CreatedAt: at.Add(2 * time.Hour)},
	}
}

func TestMongo_FindAndFacets(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, eng.BulkIndex(ctx, fixture()))

	q := query.New().
		Where(query.Contains("procesoare", query.FieldCategory)).
		OrderBy(domain.SortPriceAsc).
		Window(pagination.ForPage(1, pagination.Browse)).
		Build()
	products, total, err := eng.Find(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[0].ID)

	brands, err := eng.Distinct(ctx, query.FieldBrand, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"AMD", "ASUS", "Intel"}, brands)

	pr, err := eng.PriceRange(ctx, []query.Condition{query.Positive{Field: query.FieldStock}})
	require.NoError(t, err)
	assert.Equal(t, domain.PriceRange{Min: 1900, Max: 3200}, pr)

	attrs, err := eng.AttributeValues(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AM5", "LGA1700"}, attrs["socket"])

	counts, err := eng.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Procesoare": 2, "Placi video": 1}, counts)
}

func TestMongo_UpsertAndDelete(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	p := fixture()[0]
	require.NoError(t, eng.Index(ctx, &p))
	p.Price = 1799
	require.NoError(t, eng.Index(ctx, &p))

	products, total, err := eng.Find(ctx, query.New().Build())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1799.0, products[0].Price)

	require.NoError(t, eng.Delete(ctx, p.ID))
	require.NoError(t, eng.Delete(ctx, "missing"))

	_, total, err = eng.Find(ctx, query.New().Build())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestMongo_UpdateKeepsCreatedAt(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	p := fixture()[0]
	p.CreatedAt = created
	require.NoError(t, eng.Index(ctx, &p))

	p.CreatedAt = time.Time{}
	p.Price = 999
	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{p}))

	products, _, err := eng.Find(ctx, query.New().Build())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 999.0, products[0].Price)
	assert.True(t, created.Equal(products[0].CreatedAt))
}

func TestMongo_EmptyScope(t *testing.T) {
	eng := newTestEngine(t)

	pr, err := eng.PriceRange(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PriceRange{}, pr)
}

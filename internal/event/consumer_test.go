package event

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/cache"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine/memory"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/service"
	pkgkafka "github.com/johnnyy06/ComputerBazaar-sub000/pkg/kafka"
)

func newTestConsumer(t *testing.T) (*Consumer, *memory.Engine) {
	t.Helper()
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	sugg := service.NewSuggestionService(store, nil, l)
	return NewConsumer(service.NewCatalogService(store, sugg, cache.Nop{}, l), l), store
}

func newEvent(t *testing.T, eventType, aggregateID string, data any) *pkgkafka.Event {
	t.Helper()
	e, err := pkgkafka.NewEvent(eventType, aggregateID, "product", "product-service", data)
	require.NoError(t, err)
	return e
}

func findAll(t *testing.T, store *memory.Engine) []domain.Product {
	t.Helper()
	products, _, err := store.Find(context.Background(), query.New().Build())
	require.NoError(t, err)
	return products
}

func gpu(price float64) service.ProductInput {
	return service.ProductInput{
		ID:         "g1",
		Name:       "RTX 4070",
		Brand:      "ASUS",
		Category:   "Placi video",
		Price:      price,
		Stock:      2,
		Attributes: map[string]string{"memory": "12GB"},
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, []string{
		"ecommerce.product.created",
		"ecommerce.product.updated",
		"ecommerce.product.deleted",
	}, Topics())
}

func TestHandle_CreatedThenUpdated(t *testing.T) {
	c, store := newTestConsumer(t)
	ctx := context.Background()

	require.NoError(t, c.Handle(ctx, newEvent(t, TopicProductCreated, "g1", gpu(3200))))
	require.NoError(t, c.Handle(ctx, newEvent(t, TopicProductUpdated, "g1", gpu(2999))))

	products := findAll(t, store)
	require.Len(t, products, 1)
	assert.Equal(t, 2999.0, products[0].Price)
	assert.Equal(t, "12GB", products[0].Attributes["memory"])
}

func TestHandle_UpdateKeepsCreatedAt(t *testing.T) {
	c, store := newTestConsumer(t)
	ctx := context.Background()

	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	in := gpu(3200)
	in.CreatedAt = &created
	require.NoError(t, c.Handle(ctx, newEvent(t, TopicProductCreated, "g1", in)))
	require.NoError(t, c.Handle(ctx, newEvent(t, TopicProductUpdated, "g1", gpu(2999))))

	products := findAll(t, store)
	require.Len(t, products, 1)
	assert.Equal(t, created, products[0].CreatedAt)
}

func TestHandle_UpsertFallsBackToAggregateID(t *testing.T) {
	c, store := newTestConsumer(t)

	in := gpu(3200)
	in.ID = ""
	require.NoError(t, c.Handle(context.Background(), newEvent(t, TopicProductCreated, "g9", in)))

	products := findAll(t, store)
	require.Len(t, products, 1)
	assert.Equal(t, "g9", products[0].ID)
}

func TestHandle_InvalidPayload(t *testing.T) {
	c, store := newTestConsumer(t)

	in := gpu(-5)
	err := c.Handle(context.Background(), newEvent(t, TopicProductCreated, "g1", in))
	assert.Error(t, err)
	assert.Zero(t, store.Len())

	e := newEvent(t, TopicProductCreated, "g1", nil)
	e.Data = []byte(`{"_id":`)
	assert.Error(t, c.Handle(context.Background(), e))
}

func TestHandle_Deleted(t *testing.T) {
	c, store := newTestConsumer(t)
	ctx := context.Background()
	require.NoError(t, c.Handle(ctx, newEvent(t, TopicProductCreated, "g1", gpu(3200))))

	require.NoError(t, c.Handle(ctx, newEvent(t, TopicProductDeleted, "g1", ProductDeletedData{ID: "g1"})))
	assert.Zero(t, store.Len())

	// unknown ids are not an error
	require.NoError(t, c.Handle(ctx, newEvent(t, TopicProductDeleted, "gone", nil)))
}

func TestHandle_UnknownTypeIsIgnored(t *testing.T) {
	c, store := newTestConsumer(t)

	require.NoError(t, c.Handle(context.Background(), newEvent(t, "ecommerce.order.created", "o1", map[string]string{"id": "o1"})))
	assert.Zero(t, store.Len())
}

func TestHandle_DuplicatesDroppedByIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c, store := newTestConsumer(t)
	idem := pkgkafka.NewRedisIdempotencyStore(client, "catalog:events:", time.Hour)
	handler := pkgkafka.IdempotentHandler(idem, c.Handle, c.logger)
	ctx := context.Background()

	created := newEvent(t, TopicProductCreated, "g1", gpu(3200))
	require.NoError(t, handler(ctx, created))
	require.NoError(t, handler(ctx, newEvent(t, TopicProductDeleted, "g1", ProductDeletedData{ID: "g1"})))

	// redelivery of the create after the delete must not resurrect the product
	require.NoError(t, handler(ctx, created))
	assert.Zero(t, store.Len())
}

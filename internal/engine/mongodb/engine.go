// Package mongodb implements the catalog store on a MongoDB collection.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/database"
)

// DefaultCollection is the products collection name.
const DefaultCollection = "products"

const system = "mongodb"

var _ engine.Catalog = (*Engine)(nil)

// Engine is a Catalog backed by one MongoDB collection.
type Engine struct {
	coll *mongo.Collection
}

// New returns an Engine over db.collection.
func New(db *mongo.Database, collection string) *Engine {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Engine{coll: db.Collection(collection)}
}

// Ping checks the server behind the collection.
func (e *Engine) Ping(ctx context.Context) error {
	return e.coll.Database().Client().Ping(ctx, nil)
}

// Indexes returns the index models the query patterns rely on.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "brand", Value: "text"},
			},
			Options: options.Index().SetName("products_text"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}},
			Options: options.Index().SetName("category_price"),
		},
		{
			Keys:    bson.D{{Key: "brand", Value: 1}},
			Options: options.Index().SetName("brand"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("recency"),
		},
	}
}

// EnsureIndexes creates the indexes returned by Indexes.
func (e *Engine) EnsureIndexes(ctx context.Context) (err error) {
	ctx, end := database.TraceQuery(ctx, system, "EnsureIndexes", e.coll.Name()+".createIndexes")
	defer func() { end(err) }()

	if _, err = e.coll.Indexes().CreateMany(ctx, Indexes()); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Index upserts one product.
func (e *Engine) Index(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, system, "IndexProduct", e.coll.Name()+".updateOne")
	defer func() { end(err) }()

	_, err = e.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: p.ID}}, Upsert(*p, time.Now().UTC()), options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("index product %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes a product. Unknown ids are ignored.
func (e *Engine) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, system, "DeleteProduct", e.coll.Name()+".deleteOne")
	defer func() { end(err) }()

	if _, err = e.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

// BulkIndex upserts products with one unordered bulk write.
func (e *Engine) BulkIndex(ctx context.Context, products []domain.Product) (err error) {
	if len(products) == 0 {
		return nil
	}
	ctx, end := database.TraceQuery(ctx, system, "BulkIndexProducts", e.coll.Name()+".bulkWrite")
	defer func() { end(err) }()

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: p.ID}}).
			SetUpdate(Upsert(p, now)).
			SetUpsert(true))
	}
	if _, err = e.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("bulk index %d products: %w", len(products), err)
	}
	return nil
}

// Find runs the page query and the count concurrently.
func (e *Engine) Find(ctx context.Context, q *query.Query) (products []domain.Product, total int, err error) {
	ctx, end := database.TraceQuery(ctx, system, "FindProducts", e.coll.Name()+".find")
	defer func() { end(err) }()

	filter, err := Filter(q.Conditions)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().SetSort(Sort(q.Sort)).SetSkip(int64(q.Skip))
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}

	var count int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cur, err := e.coll.Find(gctx, filter, findOpts)
		if err != nil {
			return fmt.Errorf("find: %w", err)
		}
		if err := cur.All(gctx, &products); err != nil {
			return fmt.Errorf("cursor all: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n, err := e.coll.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		count = n
		return nil
	})
	if err = g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("find products: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, int(count), nil
}

// Distinct returns the ascending distinct non-empty values of field.
func (e *Engine) Distinct(ctx context.Context, field query.Field, conds []query.Condition, limit int) (values []string, err error) {
	ctx, end := database.TraceQuery(ctx, system, "DistinctValues", e.coll.Name()+".aggregate")
	defer func() { end(err) }()

	filter, err := Filter(conds)
	if err != nil {
		return nil, err
	}
	pipeline := DistinctPipeline(field, filter, limit)

	var rows []struct {
		Value string `bson:"_id"`
	}
	if err = e.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}

	values = make([]string, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.Value)
	}
	return values, nil
}

// PriceRange returns the min and max price among matching products.
func (e *Engine) PriceRange(ctx context.Context, conds []query.Condition) (r domain.PriceRange, err error) {
	ctx, end := database.TraceQuery(ctx, system, "PriceRange", e.coll.Name()+".aggregate")
	defer func() { end(err) }()

	filter, err := Filter(conds)
	if err != nil {
		return r, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "min", Value: bson.D{{Key: "$min", Value: "$price"}}},
			{Key: "max", Value: bson.D{{Key: "$max", Value: "$price"}}},
		}}},
	}

	var rows []struct {
		Min float64 `bson:"min"`
		Max float64 `bson:"max"`
	}
	if err = e.aggregate(ctx, pipeline, &rows); err != nil {
		return r, fmt.Errorf("price range: %w", err)
	}
	if len(rows) == 0 {
		return domain.PriceRange{}, nil
	}
	return domain.PriceRange{Min: rows[0].Min, Max: rows[0].Max}, nil
}

// AttributeValues collects the distinct values per specification key.
func (e *Engine) AttributeValues(ctx context.Context, conds []query.Condition) (attrs map[string][]string, err error) {
	ctx, end := database.TraceQuery(ctx, system, "AttributeValues", e.coll.Name()+".aggregate")
	defer func() { end(err) }()

	filter, err := Filter(conds)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Key    string   `bson:"_id"`
		Values []string `bson:"values"`
	}
	if err = e.aggregate(ctx, AttributePipeline(filter), &rows); err != nil {
		return nil, fmt.Errorf("attribute values: %w", err)
	}

	attrs = make(map[string][]string, len(rows))
	for _, r := range rows {
		attrs[r.Key] = r.Values
	}
	return attrs, nil
}

// CategoryCounts counts products per category.
func (e *Engine) CategoryCounts(ctx context.Context) (counts map[string]int, err error) {
	ctx, end := database.TraceQuery(ctx, system, "CategoryCounts", e.coll.Name()+".aggregate")
	defer func() { end(err) }()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	var rows []struct {
		Category string `bson:"_id"`
		Count    int    `bson:"count"`
	}
	if err = e.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}

	counts = make(map[string]int, len(rows))
	for _, r := range rows {
		if r.Category != "" {
			counts[r.Category] = r.Count
		}
	}
	return counts, nil
}

func (e *Engine) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cur, err := e.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

// DistinctPipeline groups matching documents by field and returns the
// non-empty keys in ascending order.
func DistinctPipeline(field query.Field, filter bson.D, limit int) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$" + string(field)}}}},
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: bson.D{
			{Key: "$type", Value: "string"},
			{Key: "$ne", Value: ""},
		}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	return pipeline
}

// AttributePipeline unwinds the specifications map into key/value pairs and
// gathers the sorted distinct values of each key.
func AttributePipeline(filter bson.D) mongo.Pipeline {
	specs := "$" + string(query.FieldAttributes)
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "kv", Value: bson.D{{Key: "$objectToArray", Value: bson.D{
				{Key: "$ifNull", Value: bson.A{specs, bson.D{}}},
			}}}},
		}}},
		{{Key: "$unwind", Value: "$kv"}},
		{{Key: "$match", Value: bson.D{{Key: "kv.v", Value: bson.D{{Key: "$ne", Value: ""}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$kv.k"},
			{Key: "values", Value: bson.D{{Key: "$addToSet", Value: "$kv.v"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "values", Value: bson.D{{Key: "$sortArray", Value: bson.D{
				{Key: "input", Value: "$values"},
				{Key: "sortBy", Value: 1},
			}}}},
		}}},
	}
}

// Upsert returns the update document that writes every field of p. A zero
// CreatedAt is only set on insert, so updates keep the stored creation time.
func Upsert(p domain.Product, now time.Time) bson.D {
	attrs := p.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	set := bson.D{
		{Key: "name", Value: p.Name},
		{Key: "brand", Value: p.Brand},
		{Key: "category", Value: p.Category},
		{Key: "description", Value: p.Description},
		{Key: "price", Value: p.Price},
		{Key: "countInStock", Value: p.Stock},
		{Key: "rating", Value: p.Rating},
		{Key: "numReviews", Value: p.NumReviews},
		{Key: "image", Value: p.Image},
		{Key: "specifications", Value: attrs},
		{Key: "updatedAt", Value: updated},
	}
	if !p.CreatedAt.IsZero() {
		set = append(set, bson.E{Key: "createdAt", Value: p.CreatedAt})
		return bson.D{{Key: "$set", Value: set}}
	}
	return bson.D{
		{Key: "$set", Value: set},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: now}}},
	}
}

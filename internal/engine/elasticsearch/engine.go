// Package elasticsearch implements the catalog store on an Elasticsearch
// index.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/database"
)

const system = "elasticsearch"

var _ engine.Catalog = (*Engine)(nil)

// Engine is a Catalog backed by one Elasticsearch index.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// esDocument is the indexed form of a product. The document id is also
// stored as a field so it can be sorted on.
type esDocument struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Brand          string            `json:"brand"`
	Category       string            `json:"category"`
	Description    string            `json:"description"`
	Price          float64           `json:"price"`
	Stock          int               `json:"countInStock"`
	Rating         float64           `json:"rating"`
	NumReviews     int               `json:"numReviews"`
	Image          string            `json:"image,omitempty"`
	Specifications map[string]string `json:"specifications"`
	SpecPairs      []string          `json:"spec_pairs"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func toDocument(p *domain.Product) esDocument {
	pairs := make([]string, 0, len(p.Attributes))
	for k, v := range p.Attributes {
		if v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)
	return esDocument{
		ID:             p.ID,
		Name:           p.Name,
		Brand:          p.Brand,
		Category:       p.Category,
		Description:    p.Description,
		Price:          p.Price,
		Stock:          p.Stock,
		Rating:         p.Rating,
		NumReviews:     p.NumReviews,
		Image:          p.Image,
		Specifications: p.Attributes,
		SpecPairs:      pairs,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d esDocument) product() domain.Product {
	attrs := d.Specifications
	if attrs == nil {
		attrs = map[string]string{}
	}
	return domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Brand:       d.Brand,
		Category:    d.Category,
		Description: d.Description,
		Price:       d.Price,
		Stock:       d.Stock,
		Rating:      d.Rating,
		NumReviews:  d.NumReviews,
		Image:       d.Image,
		Attributes:  attrs,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// keepCreatedScript replaces the stored source with params.doc. When the
// incoming product has no creation time the stored one is carried over.
const keepCreatedScript = `def created = ctx._source.createdAt; ` +
	`ctx._source.clear(); ctx._source.putAll(params.doc); ` +
	`if (params.keepCreated && created != null) { ctx._source.createdAt = created; }`

// upsertBody is the update request for p: a full replace on existing
// documents and an insert of the same document otherwise.
func upsertBody(p *domain.Product, now time.Time) object {
	doc := toDocument(p)
	keep := doc.CreatedAt.IsZero()
	if keep {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}
	return object{
		"script": object{
			"source": keepCreatedScript,
			"lang":   "painless",
			"params": object{"doc": doc, "keepCreated": keep},
		},
		"upsert": doc,
	}
}

type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source esDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

type esTermsAgg struct {
	Buckets []struct {
		Key      string `json:"key"`
		DocCount int    `json:"doc_count"`
	} `json:"buckets"`
}

type esValueAgg struct {
	Value *float64 `json:"value"`
}

type esBulkResponse struct {
	Errors bool `json:"errors"`
	// Each item is keyed by its action name.
	Items []map[string]esBulkItem `json:"items"`
}

type esBulkItem struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New connects to esURL and creates indexName when it does not exist yet.
// An empty indexName selects DefaultIndexName.
func New(ctx context.Context, esURL, indexName string, logger *slog.Logger) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esURL}})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	e := &Engine{client: client, indexName: indexName, logger: logger}
	if err := e.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}
	return e, nil
}

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

func (e *Engine) ensureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		e.logger.Debug("elasticsearch index already exists", slog.String("index", e.indexName))
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res)
	}

	e.logger.Info("elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// DeleteIndex drops the whole index. A missing index is not an error.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete([]string{e.indexName}, e.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("elasticsearch delete index", res)
	}
	return nil
}

// Index upserts one product and waits for it to become searchable.
func (e *Engine) Index(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, system, "IndexProduct", e.indexName+"/_update")
	defer func() { end(err) }()

	data, err := json.Marshal(upsertBody(p, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal product: %w", err)
	}

	res, err := e.client.Update(
		e.indexName,
		p.ID,
		bytes.NewReader(data),
		e.client.Update.WithRetryOnConflict(3),
		e.client.Update.WithRefresh("wait_for"),
		e.client.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("elasticsearch index", res)
	}
	return nil
}

// Delete removes a product. A missing document is not an error.
func (e *Engine) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, system, "DeleteProduct", e.indexName+"/_doc")
	defer func() { end(err) }()

	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithRefresh("wait_for"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("elasticsearch delete", res)
	}
	return nil
}

// BulkIndex upserts products through the NDJSON bulk API.
func (e *Engine) BulkIndex(ctx context.Context, products []domain.Product) (err error) {
	if len(products) == 0 {
		return nil
	}
	ctx, end := database.TraceQuery(ctx, system, "BulkIndexProducts", e.indexName+"/_bulk")
	defer func() { end(err) }()

	now := time.Now().UTC()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range products {
		action := object{"update": object{"_index": e.indexName, "_id": products[i].ID, "retry_on_conflict": 3}}
		if err = enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err = enc.Encode(upsertBody(&products[i], now)); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		&buf,
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("wait_for"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("elasticsearch bulk index", res)
	}

	var bulkResp esBulkResponse
	if err = json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}
	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			for _, result := range item {
				if result.Error.Type != "" {
					msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", result.ID, result.Error.Type, result.Error.Reason))
				}
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Find returns the requested page and the total hit count.
func (e *Engine) Find(ctx context.Context, q *query.Query) (products []domain.Product, total int, err error) {
	ctx, end := database.TraceQuery(ctx, system, "FindProducts", e.indexName+"/_search")
	defer func() { end(err) }()

	dsl, err := buildQuery(q.Conditions)
	if err != nil {
		return nil, 0, err
	}
	body := object{
		"query":            dsl,
		"track_total_hits": true,
	}
	// from+size may not pass the result window. A page beyond it is empty,
	// so only the total is asked for.
	from := max(q.Skip, 0)
	if from >= maxWindow {
		body["size"] = 0
	} else {
		size := q.Limit
		if size <= 0 || size > maxWindow-from {
			size = maxWindow - from
		}
		body["sort"] = buildSort(q.Sort)
		body["from"] = from
		body["size"] = size
	}

	resp, err := e.search(ctx, body)
	if err != nil {
		return nil, 0, fmt.Errorf("elasticsearch find: %w", err)
	}

	products = make([]domain.Product, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		products = append(products, hit.Source.product())
	}
	return products, resp.Hits.Total.Value, nil
}

// Distinct returns the ascending distinct non-empty values of field.
func (e *Engine) Distinct(ctx context.Context, field query.Field, conds []query.Condition, limit int) (values []string, err error) {
	ctx, end := database.TraceQuery(ctx, system, "DistinctValues", e.indexName+"/_search")
	defer func() { end(err) }()

	buckets, err := e.terms(ctx, conds, fieldName(field, true), limit)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch distinct %s: %w", field, err)
	}

	values = make([]string, 0, len(buckets.Buckets))
	for _, b := range buckets.Buckets {
		if b.Key != "" {
			values = append(values, b.Key)
		}
	}
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}

// PriceRange returns the min and max price among matching products.
func (e *Engine) PriceRange(ctx context.Context, conds []query.Condition) (r domain.PriceRange, err error) {
	ctx, end := database.TraceQuery(ctx, system, "PriceRange", e.indexName+"/_search")
	defer func() { end(err) }()

	dsl, err := buildQuery(conds)
	if err != nil {
		return r, err
	}
	resp, err := e.search(ctx, object{
		"query": dsl,
		"size":  0,
		"aggs": object{
			"min_price": object{"min": object{"field": "price"}},
			"max_price": object{"max": object{"field": "price"}},
		},
	})
	if err != nil {
		return r, fmt.Errorf("elasticsearch price range: %w", err)
	}

	var lo, hi esValueAgg
	if err = decodeAgg(resp, "min_price", &lo); err != nil {
		return r, err
	}
	if err = decodeAgg(resp, "max_price", &hi); err != nil {
		return r, err
	}
	if lo.Value == nil || hi.Value == nil {
		return domain.PriceRange{}, nil
	}
	return domain.PriceRange{Min: *lo.Value, Max: *hi.Value}, nil
}

// AttributeValues aggregates the spec_pairs keyword field and splits each
// "key=value" bucket back into its parts.
func (e *Engine) AttributeValues(ctx context.Context, conds []query.Condition) (attrs map[string][]string, err error) {
	ctx, end := database.TraceQuery(ctx, system, "AttributeValues", e.indexName+"/_search")
	defer func() { end(err) }()

	buckets, err := e.terms(ctx, conds, "spec_pairs", 0)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch attribute values: %w", err)
	}

	attrs = make(map[string][]string)
	for _, b := range buckets.Buckets {
		k, v, ok := strings.Cut(b.Key, "=")
		if !ok || v == "" {
			continue
		}
		attrs[k] = append(attrs[k], v)
	}
	for k := range attrs {
		sort.Strings(attrs[k])
	}
	return attrs, nil
}

// CategoryCounts counts products per category.
func (e *Engine) CategoryCounts(ctx context.Context) (counts map[string]int, err error) {
	ctx, end := database.TraceQuery(ctx, system, "CategoryCounts", e.indexName+"/_search")
	defer func() { end(err) }()

	buckets, err := e.terms(ctx, nil, fieldName(query.FieldCategory, true), 0)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch category counts: %w", err)
	}

	counts = make(map[string]int, len(buckets.Buckets))
	for _, b := range buckets.Buckets {
		if b.Key != "" {
			counts[b.Key] = b.DocCount
		}
	}
	return counts, nil
}

func (e *Engine) terms(ctx context.Context, conds []query.Condition, field string, limit int) (*esTermsAgg, error) {
	dsl, err := buildQuery(conds)
	if err != nil {
		return nil, err
	}
	// One extra bucket covers a possible empty-string key.
	size := limit
	if size > 0 {
		size++
	}
	resp, err := e.search(ctx, object{
		"query": dsl,
		"size":  0,
		"aggs":  object{"values": termsAgg(field, size)},
	})
	if err != nil {
		return nil, err
	}
	var agg esTermsAgg
	if err := decodeAgg(resp, "values", &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

func (e *Engine) search(ctx context.Context, body object) (*esSearchResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var resp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func decodeAgg(resp *esSearchResponse, name string, out any) error {
	raw, ok := resp.Aggregations[name]
	if !ok {
		return fmt.Errorf("aggregation %q missing from response", name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode aggregation %q: %w", name, err)
	}
	return nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	var errResp esErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status())
}

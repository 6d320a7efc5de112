package domain

import (
	"strings"
	"time"
)

// Product is a catalog document as the query layer reads it.
type Product struct {
	ID          string            `json:"_id" bson:"_id"`
	Name        string            `json:"name" bson:"name"`
	Brand       string            `json:"brand" bson:"brand"`
	Category    string            `json:"category" bson:"category"`
	Description string            `json:"description" bson:"description"`
	Price       float64           `json:"price" bson:"price"`
	Stock       int               `json:"countInStock" bson:"countInStock"`
	Rating      float64           `json:"rating" bson:"rating"`
	NumReviews  int               `json:"numReviews" bson:"numReviews"`
	Image       string            `json:"image,omitempty" bson:"image,omitempty"`
	Attributes  map[string]string `json:"specifications" bson:"specifications"`
	CreatedAt   time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// MaxDescriptionLength is the longest description, in characters, the
// catalog accepts. Stores that index the description as a single keyword
// term must not drop descriptions up to this length.
const MaxDescriptionLength = 8000

// InStock reports whether the product can be purchased.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// SortMode selects the ordering of a result page.
type SortMode string

// Supported sort modes. Relevance orders by recency because the catalog has
// no text scoring model.
const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortNewest    SortMode = "newest"
	SortNameAsc   SortMode = "name_asc"
	SortNameDesc  SortMode = "name_desc"
)

// ValidSortModes returns the list of valid sort modes.
func ValidSortModes() []SortMode {
	return []SortMode{SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest, SortNameAsc, SortNameDesc}
}

// ParseSort maps a raw sort parameter to a SortMode, falling back to
// SortRelevance for empty or unknown values.
func ParseSort(raw string) SortMode {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, s := range ValidSortModes() {
		if string(s) == raw {
			return s
		}
	}
	return SortRelevance
}

// QuerySpec is the typed, normalized form of one catalog query.
type QuerySpec struct {
	Keyword    string
	Category   string
	Brands     []string
	MinPrice   *float64
	MaxPrice   *float64
	InStock    bool
	Attributes map[string][]string
	Sort       SortMode
	Page       int
}

// HasPriceBound reports whether either price bound was supplied.
func (q *QuerySpec) HasPriceBound() bool {
	return q.MinPrice != nil || q.MaxPrice != nil
}

// ResultPage is one page of matching products plus the size of the full
// match set.
type ResultPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// SearchPage is a ResultPage enriched with related terms.
type SearchPage struct {
	ResultPage
	Suggestions []string `json:"suggestions"`
}

// PriceRange holds the lowest and highest price in a scope.
type PriceRange struct {
	Min float64 `json:"minPrice"`
	Max float64 `json:"maxPrice"`
}

// FilterOptions lists the filter choices available within a scope.
type FilterOptions struct {
	Brands     []string            `json:"brands"`
	PriceRange PriceRange          `json:"priceRange"`
	Attributes map[string][]string `json:"attributes"`
}

// EmptyFilterOptions returns the zeroed structure reported for an empty scope.
func EmptyFilterOptions() *FilterOptions {
	return &FilterOptions{
		Brands:     []string{},
		Attributes: map[string][]string{},
	}
}

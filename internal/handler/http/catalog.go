package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/domain"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/service"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/httputil"
)

// CatalogHandler serves the public, read-only catalog endpoints.
type CatalogHandler struct {
	catalog     *service.CatalogService
	facets      *service.FacetService
	suggestions *service.SuggestionService
	logger      *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(
	catalog *service.CatalogService,
	facets *service.FacetService,
	suggestions *service.SuggestionService,
	logger *slog.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		catalog:     catalog,
		facets:      facets,
		suggestions: suggestions,
		logger:      logger,
	}
}

// --- Response DTOs ---

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Products    []domain.Product `json:"products"`
	Suggestions []string         `json:"suggestions"`
	TotalCount  int              `json:"totalCount"`
	Page        int              `json:"page"`
	Pages       int              `json:"pages"`
}

// ProductsResponse is the body of GET /api/products.
type ProductsResponse struct {
	Products      []domain.Product `json:"products"`
	Page          int              `json:"page"`
	Pages         int              `json:"pages"`
	TotalProducts int              `json:"totalProducts"`
}

// SuggestionsResponse is the body of GET /api/search/suggestions.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// PopularResponse is the body of GET /api/search/popular.
type PopularResponse struct {
	Searches []string `json:"searches"`
}

// --- Handlers ---

// Search handles GET /api/search
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	spec := query.FromValues(r.URL.Query())

	page, err := h.catalog.Search(r.Context(), spec)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, SearchResponse{
		Products:    page.Products,
		Suggestions: page.Suggestions,
		TotalCount:  page.Total,
		Page:        page.Page,
		Pages:       page.Pages,
	})
}

// Suggestions handles GET /api/search/suggestions
func (h *CatalogHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	httputil.WriteJSON(w, http.StatusOK, SuggestionsResponse{
		Suggestions: h.suggestions.Suggest(r.Context(), q),
	})
}

// Popular handles GET /api/search/popular
func (h *CatalogHandler) Popular(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, PopularResponse{Searches: h.suggestions.Popular()})
}

// Products handles GET /api/products
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	spec := query.FromValues(r.URL.Query())

	page, err := h.catalog.Browse(r.Context(), spec)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ProductsResponse{
		Products:      page.Products,
		Page:          page.Page,
		Pages:         page.Pages,
		TotalProducts: page.Total,
	})
}

// FilterOptions handles GET /api/products/filter-options
func (h *CatalogHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	opts, err := h.facets.FilterOptions(r.Context(), category)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, opts)
}

// CategoryCounts handles GET /api/products/category-counts
func (h *CatalogHandler) CategoryCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.facets.CategoryCounts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counts)
}

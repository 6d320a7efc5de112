package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/service"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/httputil"
	"github.com/johnnyy06/ComputerBazaar-sub000/pkg/validator"
)

// AdminHandler serves index maintenance endpoints. Routes are expected to
// sit behind the admin role check.
type AdminHandler struct {
	catalog   *service.CatalogService
	reindexer *service.Reindexer
	logger    *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(catalog *service.CatalogService, reindexer *service.Reindexer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{catalog: catalog, reindexer: reindexer, logger: logger}
}

// StatusResponse acknowledges an index write.
type StatusResponse struct {
	ID     string `json:"id,omitempty"`
	Count  int    `json:"count,omitempty"`
	Status string `json:"status"`
}

// IndexProduct handles POST /api/admin/catalog/index
func (h *AdminHandler) IndexProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.catalog.IndexProduct(r.Context(), &req); err != nil {
		h.writeWriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{ID: req.ID, Status: "indexed"})
}

// BulkIndex handles POST /api/admin/catalog/bulk
func (h *AdminHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	var req service.BulkInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.catalog.BulkIndex(r.Context(), &req); err != nil {
		h.writeWriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Count: len(req.Products), Status: "indexed"})
}

// DeleteProduct handles DELETE /api/admin/catalog/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{ID: id, Status: "deleted"})
}

// Reindex handles POST /api/admin/catalog/reindex. The rebuild runs in the
// background; a second request while one is running gets 409.
func (h *AdminHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if err := h.reindexer.Start(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, StatusResponse{Status: "started"})
}

func (h *AdminHandler) writeWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, r, err)
		return
	}
	httputil.WriteError(w, r, err, h.logger)
}

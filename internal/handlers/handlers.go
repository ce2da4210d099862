// Package handlers exposes the catalog cache over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"catalog-cache/internal/cache"
	"catalog-cache/internal/catalog"
	"catalog-cache/internal/common/logging"
)

// Catalog is the façade surface the handlers depend on.
type Catalog interface {
	GetCategoryAddons(ctx context.Context, categoryID int64) (*catalog.CategoryAddons, error)
	GetAddonGroups(ctx context.Context, filters *catalog.GroupFilters) ([]catalog.AddonGroup, error)
	InvalidateCategory(ctx context.Context, categoryID int64)
	InvalidateAll(ctx context.Context)
	WarmUp(ctx context.Context, categoryIDs []int64) int
	Stats(ctx context.Context) *cache.Stats
}

// HealthChecker reports component connectivity for the health endpoint.
type HealthChecker interface {
	Health() error
}

type Handlers struct {
	catalog Catalog
	db      HealthChecker
	logger  logging.Logger
}

func New(cat Catalog, db HealthChecker) *Handlers {
	return &Handlers{
		catalog: cat,
		db:      db,
		logger:  logging.GetGlobalLogger().WithFields(logging.String("component", "handlers")),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// GetCategoryAddons handles GET /api/categories/{id}/addons
func (h *Handlers) GetCategoryAddons(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	categoryID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	result, err := h.catalog.GetCategoryAddons(r.Context(), categoryID)
	if err != nil {
		h.respondFetchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetAddonGroups handles GET /api/addon-groups with optional query filters
// category_id, active and search.
func (h *Handlers) GetAddonGroups(w http.ResponseWriter, r *http.Request) {
	filters := &catalog.GroupFilters{}
	query := r.URL.Query()

	if raw := query.Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category_id filter")
			return
		}
		filters.CategoryID = &categoryID
	}
	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active filter")
			return
		}
		filters.Active = &active
	}
	filters.Search = query.Get("search")

	groups, err := h.catalog.GetAddonGroups(r.Context(), filters)
	if err != nil {
		h.respondFetchError(w, err)
		return
	}

	if groups == nil {
		groups = []catalog.AddonGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// InvalidateCategory handles POST /api/categories/{id}/invalidate
func (h *Handlers) InvalidateCategory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	categoryID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	h.catalog.InvalidateCategory(r.Context(), categoryID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// InvalidateAll handles POST /api/cache/invalidate
func (h *Handlers) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	h.catalog.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

type warmupRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

// WarmUp handles POST /api/cache/warmup
func (h *Handlers) WarmUp(w http.ResponseWriter, r *http.Request) {
	var req warmupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.CategoryIDs) == 0 {
		writeError(w, http.StatusBadRequest, "category_ids is required")
		return
	}

	warmed := h.catalog.WarmUp(r.Context(), req.CategoryIDs)
	writeJSON(w, http.StatusOK, map[string]int{
		"requested": len(req.CategoryIDs),
		"warmed":    warmed,
	})
}

// GetCacheStats handles GET /api/cache/stats
func (h *Handlers) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Stats(r.Context()))
}

// HealthCheck handles GET /health. Cache tier problems are not failures
// here; only the source of truth being unreachable degrades health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.catalog.Stats(r.Context())
	body := map[string]interface{}{
		"status":          "ok",
		"cache_enabled":   stats.Enabled,
		"redis_connected": stats.RemoteConnected,
	}

	if h.db != nil {
		if err := h.db.Health(); err != nil {
			body["status"] = "degraded"
			body["database"] = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
	}

	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) respondFetchError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if errors.Is(err, catalog.ErrDatabase) {
		h.logger.Error("source of truth fetch failed", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	h.logger.Error("unexpected fetch error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-cache/internal/cache"
	"catalog-cache/internal/catalog"
)

// stubCatalog implements the Catalog interface for handler tests.
type stubCatalog struct {
	categoryErr    error
	groupsErr      error
	lastFilters    *catalog.GroupFilters
	invalidated    []int64
	invalidatedAll bool
	warmedIDs      []int64
}

func (s *stubCatalog) GetCategoryAddons(ctx context.Context, categoryID int64) (*catalog.CategoryAddons, error) {
	if s.categoryErr != nil {
		return nil, s.categoryErr
	}
	return &catalog.CategoryAddons{TotalAddons: 7}, nil
}

func (s *stubCatalog) GetAddonGroups(ctx context.Context, filters *catalog.GroupFilters) ([]catalog.AddonGroup, error) {
	s.lastFilters = filters
	if s.groupsErr != nil {
		return nil, s.groupsErr
	}
	return []catalog.AddonGroup{{ID: 1, Name: "Toppings"}}, nil
}

func (s *stubCatalog) InvalidateCategory(ctx context.Context, categoryID int64) {
	s.invalidated = append(s.invalidated, categoryID)
}

func (s *stubCatalog) InvalidateAll(ctx context.Context) {
	s.invalidatedAll = true
}

func (s *stubCatalog) WarmUp(ctx context.Context, categoryIDs []int64) int {
	s.warmedIDs = categoryIDs
	return len(categoryIDs)
}

func (s *stubCatalog) Stats(ctx context.Context) *cache.Stats {
	return &cache.Stats{Enabled: true, MemoryEntries: 2, RemoteConnected: true}
}

type stubHealth struct{ err error }

func (s *stubHealth) Health() error { return s.err }

func setupRouter(cat Catalog, db HealthChecker) *mux.Router {
	h := New(cat, db)
	router := mux.NewRouter()
	router.HandleFunc("/api/categories/{id}/addons", h.GetCategoryAddons).Methods("GET")
	router.HandleFunc("/api/categories/{id}/invalidate", h.InvalidateCategory).Methods("POST")
	router.HandleFunc("/api/addon-groups", h.GetAddonGroups).Methods("GET")
	router.HandleFunc("/api/cache/invalidate", h.InvalidateAll).Methods("POST")
	router.HandleFunc("/api/cache/warmup", h.WarmUp).Methods("POST")
	router.HandleFunc("/api/cache/stats", h.GetCacheStats).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	return router
}

func TestGetCategoryAddons(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router := setupRouter(&stubCatalog{}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/categories/42/addons", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body catalog.CategoryAddons
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 7, body.TotalAddons)
	})

	t.Run("invalid id", func(t *testing.T) {
		router := setupRouter(&stubCatalog{}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/categories/abc/addons", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("database error maps to 500", func(t *testing.T) {
		stub := &stubCatalog{categoryErr: fmt.Errorf("%w: timeout", catalog.ErrDatabase)}
		router := setupRouter(stub, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/categories/42/addons", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "database error")
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		stub := &stubCatalog{categoryErr: catalog.ErrNotFound}
		router := setupRouter(stub, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/categories/42/addons", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetAddonGroups(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		stub := &stubCatalog{}
		router := setupRouter(stub, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/addon-groups?category_id=3&active=true&search=cheese", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, stub.lastFilters)
		require.NotNil(t, stub.lastFilters.CategoryID)
		assert.Equal(t, int64(3), *stub.lastFilters.CategoryID)
		require.NotNil(t, stub.lastFilters.Active)
		assert.True(t, *stub.lastFilters.Active)
		assert.Equal(t, "cheese", stub.lastFilters.Search)
	})

	t.Run("database error maps to 500", func(t *testing.T) {
		stub := &stubCatalog{groupsErr: fmt.Errorf("%w: query failed", catalog.ErrDatabase)}
		router := setupRouter(stub, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/addon-groups", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("invalid category_id filter", func(t *testing.T) {
		router := setupRouter(&stubCatalog{}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/addon-groups?category_id=abc", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid active filter", func(t *testing.T) {
		router := setupRouter(&stubCatalog{}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/addon-groups?active=maybe", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInvalidation(t *testing.T) {
	t.Run("invalidate category", func(t *testing.T) {
		stub := &stubCatalog{}
		router := setupRouter(stub, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/categories/42/invalidate", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []int64{42}, stub.invalidated)
	})

	t.Run("invalidate all", func(t *testing.T) {
		stub := &stubCatalog{}
		router := setupRouter(stub, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/cache/invalidate", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, stub.invalidatedAll)
	})
}

func TestWarmUp(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		stub := &stubCatalog{}
		router := setupRouter(stub, nil)

		body := bytes.NewBufferString(`{"category_ids":[1,2,3]}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/cache/warmup", body))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []int64{1, 2, 3}, stub.warmedIDs)
		assert.Contains(t, rec.Body.String(), `"warmed":3`)
	})

	t.Run("empty ids", func(t *testing.T) {
		router := setupRouter(&stubCatalog{}, nil)

		body := bytes.NewBufferString(`{"category_ids":[]}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/cache/warmup", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := setupRouter(&stubCatalog{}, nil)

		body := bytes.NewBufferString(`{not json`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/cache/warmup", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetCacheStats(t *testing.T) {
	router := setupRouter(&stubCatalog{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/cache/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.True(t, stats.Enabled)
	assert.Equal(t, 2, stats.MemoryEntries)
	assert.True(t, stats.RemoteConnected)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := setupRouter(&stubCatalog{}, &stubHealth{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	})

	t.Run("database unreachable degrades health", func(t *testing.T) {
		router := setupRouter(&stubCatalog{}, &stubHealth{err: fmt.Errorf("connection refused")})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	})

	t.Run("cache tier problems are not failures", func(t *testing.T) {
		// Remote disconnected: health stays ok.
		router := setupRouter(&stubCatalog{}, &stubHealth{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

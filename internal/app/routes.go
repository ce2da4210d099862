package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"catalog-cache/internal/handlers"
	"catalog-cache/internal/middleware"
)

// buildRouter assembles the HTTP surface.
func (app *App) buildRouter() http.Handler {
	h := handlers.New(app.Catalog, app.Provider)

	router := mux.NewRouter()
	router.Use(middleware.RequestLogging)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories/{id}/addons", h.GetCategoryAddons).Methods("GET")
	api.HandleFunc("/categories/{id}/invalidate", h.InvalidateCategory).Methods("POST")
	api.HandleFunc("/addon-groups", h.GetAddonGroups).Methods("GET")
	api.HandleFunc("/cache/invalidate", h.InvalidateAll).Methods("POST")
	api.HandleFunc("/cache/warmup", h.WarmUp).Methods("POST")
	api.HandleFunc("/cache/stats", h.GetCacheStats).Methods("GET")

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	return router
}

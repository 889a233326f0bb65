// Package handler wires the HTTP surface: REST verb dispatch onto the crud
// controllers plus health probes. Handlers stay thin; outcome and error
// rendering live in pkg/response.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkraev/crudkit/internal/crud"
	"github.com/mkraev/crudkit/internal/model"
	"github.com/mkraev/crudkit/internal/repository"
)

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, probe repository.Pinger, albums *crud.Controller[model.Album], entries *crud.Controller[model.CatalogEntry]) {
	h := NewHealthHandler(probe)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	RegisterDocs(r)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		if albums != nil {
			NewResourceHandler(albums, bindAlbum).Register(api, "albums")
		}
		if entries != nil {
			NewResourceHandler(entries, bindEntry).Register(api, "entries")
		}
	}
}

// MethodOverride wraps the engine so clients that can only issue GET/POST can
// tunnel PUT and DELETE through the _http_method parameter. It must wrap the
// engine rather than run as gin middleware: gin has already picked the route
// by the time middleware sees the request.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			switch r.URL.Query().Get("_http_method") {
			case http.MethodPut:
				r.Method = http.MethodPut
			case http.MethodDelete:
				r.Method = http.MethodDelete
			}
		}
		next.ServeHTTP(w, r)
	})
}

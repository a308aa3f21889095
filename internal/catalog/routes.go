package catalog

import "github.com/go-chi/chi/v5"

// RegisterRoutes registra filtros y estadísticas.
func RegisterRoutes(route chi.Router, handler *Handler) {
	route.Route("/filters", func(route chi.Router) {
		route.Get("/brands", handler.Brands)
		route.Get("/case-materials", handler.CaseMaterials)
		route.Get("/movement-types", handler.MovementTypes)
	})
	route.Get("/stats", handler.Stats)
}

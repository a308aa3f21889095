package watches

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registra las rutas de relojes en el router.
// adminOnly protege la carga de imágenes.
func RegisterRoutes(route chi.Router, handler *Handler, adminOnly func(http.Handler) http.Handler) {
	route.Route("/watches", func(route chi.Router) {
		route.Get("/", handler.Search)
		route.Get("/{id}", handler.GetByID)
		route.Get("/{id}/image", handler.ImageURL)
	})

	route.With(adminOnly).Put("/admin/watches/{id}/image", handler.ReplaceImage)
}

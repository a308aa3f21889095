package docs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /docs/ (Swagger UI) y /docs/openapi.yaml.
func RegisterRoutes(route chi.Router) {
	// /docs sin slash redirige para que las rutas relativas del HTML resuelvan.
	route.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	route.Get("/docs/", SwaggerUIHandler())
	route.Get("/docs/"+openAPIFile, OpenAPIHandler())
}

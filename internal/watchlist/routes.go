package watchlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registra la watchlist detrás de requireUser.
func RegisterRoutes(route chi.Router, handler *Handler, requireUser func(http.Handler) http.Handler) {
	route.Route("/watchlist", func(route chi.Router) {
		route.Use(requireUser)
		route.Get("/", handler.List)
		route.Post("/", handler.Add)
		route.Delete("/{watchId}", handler.Remove)
	})
}

package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestIDFrom devuelve el id del request para incluirlo en las respuestas.
// Prioriza el valor que deja middleware.RequestID en el contexto y cae al
// header "X-Request-Id" cuando el handler se usa sin ese middleware.
func RequestIDFrom(request *http.Request) string {
	if request == nil {
		return ""
	}
	if id := middleware.GetReqID(request.Context()); id != "" {
		return id
	}
	return request.Header.Get(middleware.RequestIDHeader)
}

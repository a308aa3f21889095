// Package docs sirve la especificación OpenAPI embebida y Swagger UI.
package docs

import (
	"embed"
	"net/http"
)

//go:embed openapi.yaml swagger.html
var assets embed.FS

const (
	openAPIFile = "openapi.yaml"
	swaggerFile = "swagger.html"
)

// OpenAPIHandler devuelve el documento OpenAPI del catálogo.
func OpenAPIHandler() http.HandlerFunc {
	return assetHandler(openAPIFile, "application/yaml; charset=utf-8")
}

// SwaggerUIHandler devuelve la página de Swagger UI que consume /docs/openapi.yaml.
func SwaggerUIHandler() http.HandlerFunc {
	return assetHandler(swaggerFile, "text/html; charset=utf-8")
}

func assetHandler(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := assets.ReadFile(name)
		if err != nil {
			http.Error(w, name+" not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

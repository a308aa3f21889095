package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/Lelo88/watch-catalog-api/internal/db"
	"github.com/Lelo88/watch-catalog-api/internal/httpx"
)

// ServiceAPI define lo que el handler necesita.
type ServiceAPI interface {
	Brands(ctx context.Context) ([]string, error)
	CaseMaterials(ctx context.Context) ([]string, error)
	MovementTypes(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (Stats, error)
}

// Handler HTTP para filtros y estadísticas.
type Handler struct {
	service ServiceAPI
}

// NewHandler crea el handler.
func NewHandler(service ServiceAPI) *Handler {
	return &Handler{service: service}
}

// Brands maneja GET /filters/brands.
func (handler *Handler) Brands(writer http.ResponseWriter, request *http.Request) {
	handler.vocabulary(writer, request, handler.service.Brands)
}

// CaseMaterials maneja GET /filters/case-materials.
func (handler *Handler) CaseMaterials(writer http.ResponseWriter, request *http.Request) {
	handler.vocabulary(writer, request, handler.service.CaseMaterials)
}

// MovementTypes maneja GET /filters/movement-types.
func (handler *Handler) MovementTypes(writer http.ResponseWriter, request *http.Request) {
	handler.vocabulary(writer, request, handler.service.MovementTypes)
}

func (handler *Handler) vocabulary(writer http.ResponseWriter, request *http.Request, load func(context.Context) ([]string, error)) {
	values, err := load(request.Context())
	if err != nil {
		writeError(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, values)
}

// Stats maneja GET /stats.
func (handler *Handler) Stats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.Stats(request.Context())
	if err != nil {
		writeError(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, stats)
}

func writeError(writer http.ResponseWriter, request *http.Request, err error) {
	if errors.Is(err, db.ErrUnavailable) {
		httpx.Fail(writer, request, http.StatusServiceUnavailable, httpx.CodeStorageUnavailable, "catalog storage unavailable")
		return
	}
	httpx.Fail(writer, request, http.StatusInternalServerError, httpx.CodeInternal, "unexpected error")
}

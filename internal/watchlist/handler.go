package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Lelo88/watch-catalog-api/internal/auth"
	"github.com/Lelo88/watch-catalog-api/internal/db"
	"github.com/Lelo88/watch-catalog-api/internal/httpx"
)

// ServiceAPI define lo que el handler necesita.
type ServiceAPI interface {
	Add(ctx context.Context, userID string, watchID int64, notes *string) (Entry, error)
	Remove(ctx context.Context, userID string, watchID int64) error
	List(ctx context.Context, userID string) ([]Entry, error)
}

// Handler HTTP para la watchlist del usuario autenticado.
type Handler struct {
	service ServiceAPI
}

// NewHandler crea el handler.
func NewHandler(service ServiceAPI) *Handler {
	return &Handler{service: service}
}

type addInput struct {
	WatchID int64   `json:"watch_id"`
	Notes   *string `json:"notes"`
}

// List maneja GET /watchlist.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	identity, ok := auth.FromContext(request.Context())
	if !ok {
		httpx.Fail(writer, request, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
		return
	}

	entries, err := handler.service.List(request.Context(), identity.UserID)
	if err != nil {
		writeError(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, entries)
}

// Add maneja POST /watchlist.
func (handler *Handler) Add(writer http.ResponseWriter, request *http.Request) {
	identity, ok := auth.FromContext(request.Context())
	if !ok {
		httpx.Fail(writer, request, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
		return
	}

	var input addInput
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	entry, err := handler.service.Add(request.Context(), identity.UserID, input.WatchID, input.Notes)
	if err != nil {
		writeError(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusCreated, entry)
}

// Remove maneja DELETE /watchlist/{watchId}.
func (handler *Handler) Remove(writer http.ResponseWriter, request *http.Request) {
	identity, ok := auth.FromContext(request.Context())
	if !ok {
		httpx.Fail(writer, request, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
		return
	}

	watchID, err := httpx.PathID(request, "watchId")
	if err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, httpx.CodeInvalidID, "watch id must be a positive integer")
		return
	}

	if err := handler.service.Remove(request.Context(), identity.UserID, watchID); err != nil {
		writeError(writer, request, err)
		return
	}

	// 204 No Content: respuesta vacía.
	writer.WriteHeader(http.StatusNoContent)
}

func writeError(writer http.ResponseWriter, request *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Fail(writer, request, http.StatusBadRequest, httpx.CodeInvalidInput, "invalid input data")
	case errors.Is(err, ErrNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, httpx.CodeNotFound, "watch not found")
	case errors.Is(err, db.ErrUnavailable):
		httpx.Fail(writer, request, http.StatusServiceUnavailable, httpx.CodeStorageUnavailable, "catalog storage unavailable")
	default:
		httpx.Fail(writer, request, http.StatusInternalServerError, httpx.CodeInternal, "unexpected error")
	}
}

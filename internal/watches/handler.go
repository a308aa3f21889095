package watches

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Lelo88/watch-catalog-api/internal/httpx"
	"github.com/Lelo88/watch-catalog-api/internal/images"
)

// multipartOverhead deja margen para los headers del form.
const multipartOverhead = 1 << 20

// ServiceAPI define lo que el handler necesita.
// Permite testear handlers con stubs sin tocar DB.
type ServiceAPI interface {
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	Get(ctx context.Context, id int64) (Watch, error)
	ImageURL(ctx context.Context, id int64) (images.Resolution, error)
	ReplaceImage(ctx context.Context, id int64, upload ImageUpload) (images.Resolution, error)
}

// Handler HTTP para relojes.
// Solo traduce HTTP <-> dominio (service).
type Handler struct {
	service ServiceAPI
}

// NewHandler crea un handler de relojes.
func NewHandler(service ServiceAPI) *Handler {
	return &Handler{service: service}
}

type imageResponse struct {
	ImageURL  string     `json:"image_url"`
	Exists    bool       `json:"exists"`
	Key       string     `json:"key,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func newImageResponse(resolution images.Resolution) imageResponse {
	return imageResponse{
		ImageURL:  resolution.URL,
		Exists:    resolution.Resolved(),
		Key:       resolution.Key,
		ExpiresAt: resolution.ExpiresAt,
	}
}

// Search maneja GET /watches.
func (handler *Handler) Search(writer http.ResponseWriter, request *http.Request) {
	req, err := parseSearchRequest(request)
	if err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, httpx.CodeInvalidInput, "invalid query parameters")
		return
	}

	result, err := handler.service.Search(request.Context(), req)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.Paged(writer, request, result.Watches, httpx.Page{
		Limit:  result.Limit,
		Offset: result.Offset,
		Total:  result.Total,
	})
}

func parseSearchRequest(request *http.Request) (SearchRequest, error) {
	limit, err := httpx.QueryInt(request, "limit", DefaultLimit)
	if err != nil {
		return SearchRequest{}, err
	}
	offset, err := httpx.QueryInt(request, "offset", 0)
	if err != nil {
		return SearchRequest{}, err
	}
	diameterMin, err := httpx.QueryFloat(request, "diameter_min")
	if err != nil {
		return SearchRequest{}, err
	}
	diameterMax, err := httpx.QueryFloat(request, "diameter_max")
	if err != nil {
		return SearchRequest{}, err
	}

	return SearchRequest{
		Query:        httpx.QueryString(request, "query"),
		Brand:        httpx.QueryString(request, "brand"),
		Family:       httpx.QueryString(request, "family"),
		CaseMaterial: httpx.QueryString(request, "case_material"),
		MovementType: httpx.QueryString(request, "movement_type"),
		DiameterMin:  diameterMin,
		DiameterMax:  diameterMax,
		SortBy:       SortField(httpx.QueryString(request, "sort_by")),
		SortOrder:    SortOrder(httpx.QueryString(request, "sort_order")),
		Limit:        limit,
		Offset:       offset,
	}, nil
}

// GetByID maneja GET /watches/{id}.
func (handler *Handler) GetByID(writer http.ResponseWriter, request *http.Request) {
	id, err := httpx.PathID(request, "id")
	if err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, httpx.CodeInvalidID, "id must be a positive integer")
		return
	}

	watch, err := handler.service.Get(request.Context(), id)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, watch)
}

// ImageURL maneja GET /watches/{id}/image.
func (handler *Handler) ImageURL(writer http.ResponseWriter, request *http.Request) {
	id, err := httpx.PathID(request, "id")
	if err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, httpx.CodeInvalidID, "id must be a positive integer")
		return
	}

	resolution, err := handler.service.ImageURL(request.Context(), id)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, newImageResponse(resolution))
}

// ReplaceImage maneja PUT /admin/watches/{id}/image (multipart, campo "file").
func (handler *Handler) ReplaceImage(writer http.ResponseWriter, request *http.Request) {
	id, err := httpx.PathID(request, "id")
	if err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, httpx.CodeInvalidID, "id must be a positive integer")
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, MaxImageBytes+multipartOverhead)
	file, header, err := request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Fail(writer, request, http.StatusRequestEntityTooLarge, "payload_too_large", "image exceeds 10 MiB")
			return
		}
		httpx.Fail(writer, request, http.StatusBadRequest, httpx.CodeInvalidInput, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	if header.Size > MaxImageBytes {
		httpx.Fail(writer, request, http.StatusRequestEntityTooLarge, "payload_too_large", "image exceeds 10 MiB")
		return
	}

	resolution, err := handler.service.ReplaceImage(request.Context(), id, ImageUpload{
		Body:        file,
		Size:        header.Size,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, newImageResponse(resolution))
}

// writeError traduce errores de dominio a HTTP sin filtrar detalles internos.
func writeError(writer http.ResponseWriter, request *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Fail(writer, request, http.StatusBadRequest, httpx.CodeInvalidInput, "invalid input data")
	case errors.Is(err, ErrNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, httpx.CodeNotFound, "watch not found")
	case errors.Is(err, ErrStorageUnavailable):
		httpx.Fail(writer, request, http.StatusServiceUnavailable, httpx.CodeStorageUnavailable, "catalog storage unavailable")
	case errors.Is(err, images.ErrNoStore):
		httpx.Fail(writer, request, http.StatusServiceUnavailable, httpx.CodeStorageUnavailable, "image storage not configured")
	default:
		httpx.Fail(writer, request, http.StatusInternalServerError, httpx.CodeInternal, "unexpected error")
	}
}

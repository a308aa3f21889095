package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response es el sobre estándar que devuelve la API.
type Response struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
	Meta  *Meta      `json:"meta,omitempty"`
}

// Meta contiene información de trazabilidad y, en listados, la paginación.
type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	TimeUTC   string `json:"time_utc,omitempty"`
	Page      *Page  `json:"page,omitempty"`
}

// Page describe la ventana devuelta por un listado paginado.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ErrorBody describe un error de forma estructurada.
// Nunca lleva SQL ni detalles internos.
type ErrorBody struct {
	Code    string `json:"code,omitempty"`    // ej: "invalid_input", "not_found"
	Message string `json:"message,omitempty"` // mensaje para humanos
}

// Códigos de error que comparten todos los handlers.
const (
	CodeInvalidInput       = "invalid_input"
	CodeInvalidID          = "invalid_id"
	CodeNotFound           = "not_found"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeStorageUnavailable = "storage_unavailable"
	CodeInternal           = "internal_error"
)

// JSON escribe una respuesta JSON con headers correctos.
// Si falla el encodeo responde 500 de forma segura.
func JSON(w http.ResponseWriter, status int, resp Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, `{"error":{"code":"internal","message":"internal server error"}}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// OK devuelve una respuesta exitosa con data.
func OK(w http.ResponseWriter, r *http.Request, status int, data any) {
	JSON(w, status, Response{Data: data, Meta: newMeta(r)})
}

// Paged devuelve un listado junto con su paginación en meta.
func Paged(w http.ResponseWriter, r *http.Request, data any, page Page) {
	meta := newMeta(r)
	meta.Page = &page
	JSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// Fail devuelve un error estructurado.
func Fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	JSON(w, status, Response{
		Error: &ErrorBody{
			Code:    code,
			Message: message,
		},
		Meta: newMeta(r),
	})
}

func newMeta(r *http.Request) *Meta {
	return &Meta{
		RequestID: RequestIDFrom(r),
		TimeUTC:   time.Now().UTC().Format(time.RFC3339),
	}
}

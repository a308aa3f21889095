package httpx

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ErrBadParam indica un parámetro de query o de path mal formado.
var ErrBadParam = errors.New("bad parameter")

// QueryString devuelve el parámetro recortado ("" si no vino).
func QueryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// QueryInt parsea un entero opcional; ausente devuelve def.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	value := QueryString(r, key)
	if value == "" {
		return def, nil
	}
	number, err := strconv.Atoi(value)
	if err != nil {
		return 0, ErrBadParam
	}
	return number, nil
}

// QueryFloat parsea un número opcional; ausente devuelve nil.
// NaN e infinitos se rechazan.
func QueryFloat(r *http.Request, key string) (*float64, error) {
	value := QueryString(r, key)
	if value == "" {
		return nil, nil
	}
	number, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return nil, ErrBadParam
	}
	return &number, nil
}

// PathID parsea un identificador numérico positivo del path.
func PathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id < 1 {
		return 0, ErrBadParam
	}
	return id, nil
}

// Package metrics expone los colectores Prometheus del catálogo.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "watch_catalog"

// Metrics agrupa los colectores y su registry.
type Metrics struct {
	registry *prometheus.Registry

	imageResolutions *prometheus.CounterVec
	searchDuration   prometheus.Histogram
	importRows       *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New crea y registra los colectores en un registry propio.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		imageResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "image_resolutions_total",
				Help:      "Image resolutions by outcome",
			},
			[]string{"outcome"}, // resolved, no_filename, no_store, missing, lookup_error, sign_error
		),
		searchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Time taken by catalog searches (count + page)",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms a ~4s
			},
		),
		importRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_rows_total",
				Help:      "Rows processed by the bulk importer",
			},
			[]string{"result"}, // inserted, skipped
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Time taken for HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	for _, collector := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.imageResolutions,
		m.searchDuration,
		m.importRows,
		m.httpRequests,
		m.httpDuration,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ImageResolved cuenta una resolución de imagen.
func (m *Metrics) ImageResolved(outcome string) {
	m.imageResolutions.WithLabelValues(outcome).Inc()
}

// ObserveSearch registra la duración de una búsqueda.
func (m *Metrics) ObserveSearch(duration time.Duration) {
	m.searchDuration.Observe(duration.Seconds())
}

// ImportRow cuenta una fila del importador ("inserted" o "skipped").
func (m *Metrics) ImportRow(result string, n int) {
	m.importRows.WithLabelValues(result).Add(float64(n))
}

// Handler sirve /metrics con el registry propio.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware mide cada request usando el patrón de ruta de chi como label,
// así los ids del path no disparan la cardinalidad.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

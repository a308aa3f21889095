package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lelo88/watch-catalog-api/internal/config"
	"github.com/Lelo88/watch-catalog-api/internal/db"
	"github.com/Lelo88/watch-catalog-api/internal/httpx"
	"github.com/Lelo88/watch-catalog-api/internal/images"
	"github.com/Lelo88/watch-catalog-api/internal/metrics"
)

type fakePool struct {
	pingErr     error
	pingCalled  bool
	closeCalled bool
}

func (pool *fakePool) Ping(ctx context.Context) error {
	pool.pingCalled = true
	return pool.pingErr
}

func (pool *fakePool) Close() {
	pool.closeCalled = true
}

func (pool *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{}
}

func (pool *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, db.ErrUnavailable
}

func (pool *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, db.ErrUnavailable
}

type errRow struct{}

func (errRow) Scan(dest ...any) error { return db.ErrUnavailable }

func testConfig() config.Config {
	return config.Config{
		Port:            "7070",
		DatabaseURL:     "postgres://",
		LogLevel:        "info",
		RequestTimeout:  time.Second,
		ShutdownTimeout: time.Second,
		RunMigrations:   true,
		JWTSecret:       "secret",
	}
}

// testDeps arma dependencias que no tocan red ni disco.
func testDeps(pool *fakePool) appDeps {
	return appDeps{
		loadConfig: func() (config.Config, error) {
			return testConfig(), nil
		},
		newLogger: func(level string, asJSON bool) (*zap.Logger, error) {
			return zap.NewNop(), nil
		},
		newPool: func(ctx context.Context, url string) (appPool, error) {
			return pool, nil
		},
		migrate: func(ctx context.Context, pool appPool) error {
			return nil
		},
		newObjectStore: func(cfg config.ObjectStore) (images.ObjectStore, error) {
			return nil, errors.New("should not be called")
		},
		serve: func(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
			return nil
		},
	}
}

func TestMain_FatalOnError(t *testing.T) {
	originalFatal := fatalf
	defer func() { fatalf = originalFatal }()

	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL", "")

	var fatalArg any
	fatalf = func(args ...any) {
		if len(args) > 0 {
			fatalArg = args[0]
		}
	}

	main()

	require.Error(t, fatalArg.(error))
	require.Contains(t, fatalArg.(error).Error(), "DATABASE_URL")
}

func TestRun_ConfigError(t *testing.T) {
	deps := testDeps(&fakePool{})
	deps.loadConfig = func() (config.Config, error) {
		return config.Config{}, errors.New("load failed")
	}
	deps.newPool = func(ctx context.Context, url string) (appPool, error) {
		return nil, errors.New("should not be called")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "load failed")
}

func TestRun_LoggerError(t *testing.T) {
	deps := testDeps(&fakePool{})
	deps.newLogger = func(level string, asJSON bool) (*zap.Logger, error) {
		return nil, errors.New("bad level")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "bad level")
}

func TestRun_NewPoolError(t *testing.T) {
	deps := testDeps(&fakePool{})
	deps.newPool = func(ctx context.Context, url string) (appPool, error) {
		return nil, db.ErrUnavailable
	}

	err := run(context.Background(), deps)

	require.ErrorIs(t, err, db.ErrUnavailable)
}

func TestRun_MigrateError(t *testing.T) {
	pool := &fakePool{}
	deps := testDeps(pool)
	deps.migrate = func(ctx context.Context, pool appPool) error {
		return errors.New("migrate failed")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "migrate failed")
	require.True(t, pool.closeCalled)
}

func TestRun_SkipsMigrations(t *testing.T) {
	deps := testDeps(&fakePool{})
	deps.loadConfig = func() (config.Config, error) {
		cfg := testConfig()
		cfg.RunMigrations = false
		return cfg, nil
	}
	deps.migrate = func(ctx context.Context, pool appPool) error {
		return errors.New("should not be called")
	}

	require.NoError(t, run(context.Background(), deps))
}

func TestRun_ObjectStore(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		deps := testDeps(&fakePool{})
		deps.loadConfig = func() (config.Config, error) {
			cfg := testConfig()
			cfg.ObjectStore = config.ObjectStore{Endpoint: "minio:9000", Bucket: "watch-images"}
			return cfg, nil
		}
		var got config.ObjectStore
		deps.newObjectStore = func(cfg config.ObjectStore) (images.ObjectStore, error) {
			got = cfg
			return nil, nil
		}

		require.NoError(t, run(context.Background(), deps))
		require.Equal(t, "minio:9000", got.Endpoint)
	})

	t.Run("error", func(t *testing.T) {
		deps := testDeps(&fakePool{})
		deps.loadConfig = func() (config.Config, error) {
			cfg := testConfig()
			cfg.ObjectStore = config.ObjectStore{Endpoint: "minio:9000"}
			return cfg, nil
		}
		deps.newObjectStore = func(cfg config.ObjectStore) (images.ObjectStore, error) {
			return nil, errors.New("bucket is required")
		}

		require.EqualError(t, run(context.Background(), deps), "bucket is required")
	})
}

func TestRun_ServeError(t *testing.T) {
	pool := &fakePool{}
	deps := testDeps(pool)
	deps.serve = func(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
		return errors.New("listen failed")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "listen failed")
	require.True(t, pool.closeCalled)
}

func TestRun_Success(t *testing.T) {
	pool := &fakePool{}
	deps := testDeps(pool)
	var addr string
	var timeout time.Duration
	deps.serve = func(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
		addr = server.Addr
		timeout = shutdownTimeout
		require.NotNil(t, server.Handler)
		return nil
	}

	err := run(context.Background(), deps)

	require.NoError(t, err)
	require.True(t, pool.closeCalled)
	require.Equal(t, ":7070", addr)
	require.Equal(t, time.Second, timeout)
}

func TestServe_GracefulShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, server, time.Second) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func newTestRouter(t *testing.T, pool *fakePool) http.Handler {
	t.Helper()

	appMetrics, err := metrics.New()
	require.NoError(t, err)

	return buildRouter(routerDeps{
		config:  testConfig(),
		pool:    pool,
		logger:  zap.NewNop(),
		metrics: appMetrics,
	})
}

func serveRequest(router http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBuildRouter_HealthReady(t *testing.T) {
	pool := &fakePool{}
	router := newTestRouter(t, pool)

	rec := serveRequest(router, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	data := asMap(t, decodeResponse(t, rec).Data)
	require.Equal(t, "ok", data["status"])

	rec = serveRequest(router, http.MethodGet, "/ready")

	require.Equal(t, http.StatusOK, rec.Code)
	data = asMap(t, decodeResponse(t, rec).Data)
	require.Equal(t, "ready", data["status"])
	require.True(t, pool.pingCalled)
}

func TestBuildRouter_NotReady(t *testing.T) {
	router := newTestRouter(t, &fakePool{pingErr: errors.New("down")})

	rec := serveRequest(router, http.MethodGet, "/ready")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildRouter_NotFound(t *testing.T) {
	router := newTestRouter(t, &fakePool{})

	rec := serveRequest(router, http.MethodGet, "/missing")

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	require.Equal(t, "not_found", resp.Error.Code)
	require.NotEmpty(t, resp.Meta.RequestID)
}

func TestBuildRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, &fakePool{})

	rec := serveRequest(router, http.MethodPost, "/health")

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	require.Equal(t, "method_not_allowed", resp.Error.Code)
}

func TestBuildRouter_DomainRoutes(t *testing.T) {
	router := newTestRouter(t, &fakePool{})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "search storage down", method: http.MethodGet, path: "/watches", wantStatus: http.StatusServiceUnavailable, wantCode: "storage_unavailable"},
		{name: "search bad limit", method: http.MethodGet, path: "/watches?limit=abc", wantStatus: http.StatusBadRequest, wantCode: "invalid_input"},
		{name: "get storage down", method: http.MethodGet, path: "/watches/1", wantStatus: http.StatusServiceUnavailable, wantCode: "storage_unavailable"},
		{name: "get bad id", method: http.MethodGet, path: "/watches/abc", wantStatus: http.StatusBadRequest, wantCode: "invalid_id"},
		{name: "image storage down", method: http.MethodGet, path: "/watches/1/image", wantStatus: http.StatusServiceUnavailable, wantCode: "storage_unavailable"},
		{name: "brands storage down", method: http.MethodGet, path: "/filters/brands", wantStatus: http.StatusServiceUnavailable, wantCode: "storage_unavailable"},
		{name: "stats storage down", method: http.MethodGet, path: "/stats", wantStatus: http.StatusServiceUnavailable, wantCode: "storage_unavailable"},
		{name: "watchlist needs token", method: http.MethodGet, path: "/watchlist", wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "admin upload needs token", method: http.MethodPut, path: "/admin/watches/1/image", wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveRequest(router, tt.method, tt.path)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantCode, decodeResponse(t, rec).Error.Code)
		})
	}
}

func TestBuildRouter_MetricsAndDocs(t *testing.T) {
	router := newTestRouter(t, &fakePool{})

	serveRequest(router, http.MethodGet, "/health")
	rec := serveRequest(router, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `watch_catalog_http_requests_total{method="GET",route="/health",status_code="200"} 1`))

	rec = serveRequest(router, http.MethodGet, "/docs/openapi.yaml")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serveRequest(router, http.MethodGet, "/docs")
	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	require.Equal(t, "/docs/", rec.Header().Get("Location"))
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) httpx.Response {
	t.Helper()

	var response httpx.Response
	decoder := json.NewDecoder(bytes.NewReader(recorder.Body.Bytes()))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&response))
	return response
}

func asMap(t *testing.T, value any) map[string]any {
	t.Helper()

	out, ok := value.(map[string]any)
	require.True(t, ok, "expected map, got %T", value)
	return out
}

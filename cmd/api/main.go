package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Lelo88/watch-catalog-api/internal/auth"
	"github.com/Lelo88/watch-catalog-api/internal/catalog"
	"github.com/Lelo88/watch-catalog-api/internal/config"
	"github.com/Lelo88/watch-catalog-api/internal/db"
	"github.com/Lelo88/watch-catalog-api/internal/docs"
	"github.com/Lelo88/watch-catalog-api/internal/health"
	"github.com/Lelo88/watch-catalog-api/internal/httpx"
	"github.com/Lelo88/watch-catalog-api/internal/images"
	"github.com/Lelo88/watch-catalog-api/internal/logging"
	"github.com/Lelo88/watch-catalog-api/internal/metrics"
	"github.com/Lelo88/watch-catalog-api/internal/objectstore"
	"github.com/Lelo88/watch-catalog-api/internal/watches"
	"github.com/Lelo88/watch-catalog-api/internal/watchlist"
)

const (
	defaultRequestTimeout = 10 * time.Second
	readHeaderTimeout     = 5 * time.Second
)

// appPool es lo que el proceso usa del pool: queries para los repositorios,
// Ping para /ready y Close al salir.
type appPool interface {
	db.Querier
	Ping(ctx context.Context) error
	Close()
}

// appDeps permite sustituir los efectos externos en tests.
type appDeps struct {
	loadConfig     func() (config.Config, error)
	newLogger      func(level string, asJSON bool) (*zap.Logger, error)
	newPool        func(ctx context.Context, url string) (appPool, error)
	migrate        func(ctx context.Context, pool appPool) error
	newObjectStore func(cfg config.ObjectStore) (images.ObjectStore, error)
	serve          func(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error
}

var fatalf = func(args ...any) {
	log.Fatal(args...)
}

func main() {
	// Contexto raíz del proceso: se cancela con SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, defaultDeps()); err != nil {
		fatalf(err)
	}
}

func defaultDeps() appDeps {
	return appDeps{
		loadConfig: func() (config.Config, error) {
			return config.Load()
		},
		newLogger: logging.New,
		newPool: func(ctx context.Context, url string) (appPool, error) {
			pool, err := db.NewPool(ctx, url)
			if err != nil {
				return nil, err
			}
			return pool, nil
		},
		migrate: func(ctx context.Context, pool appPool) error {
			pgPool, ok := pool.(*pgxpool.Pool)
			if !ok {
				return errors.New("migrate: unsupported pool type")
			}
			return db.Migrate(ctx, pgPool)
		},
		newObjectStore: func(cfg config.ObjectStore) (images.ObjectStore, error) {
			client, err := objectstore.New(objectstore.Options{
				Endpoint:  cfg.Endpoint,
				AccessKey: cfg.AccessKey,
				SecretKey: cfg.SecretKey,
				Bucket:    cfg.Bucket,
				Region:    cfg.Region,
				UseSSL:    cfg.UseSSL,
			})
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		serve: serve,
	}
}

func run(ctx context.Context, deps appDeps) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}

	logger, err := deps.newLogger(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	pool, err := deps.newPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := deps.migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	// Sin object store las imágenes resuelven siempre a la URL por defecto.
	var store images.ObjectStore
	if cfg.ObjectStore.Enabled() {
		store, err = deps.newObjectStore(cfg.ObjectStore)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("object store not configured, serving default image URLs")
	}

	appMetrics, err := metrics.New()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	router := buildRouter(routerDeps{
		config:  cfg,
		pool:    pool,
		store:   store,
		logger:  logger,
		metrics: appMetrics,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Info("listening", zap.String("addr", server.Addr))
	if err := deps.serve(ctx, server, cfg.ShutdownTimeout); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// serve corre el server hasta que ctx se cancela y luego hace shutdown
// ordenado, esperando a los requests en curso hasta shutdownTimeout.
func serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

type routerDeps struct {
	config  config.Config
	pool    appPool
	store   images.ObjectStore
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func buildRouter(deps routerDeps) http.Handler {
	requestTimeout := deps.config.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	// Middlewares base para trazabilidad y estabilidad.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(deps.logger))
	r.Use(deps.metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// Errores de routing se manejan a nivel router.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusNotFound, httpx.CodeNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusMethodNotAllowed, httpx.CodeMethodNotAllowed, "method not allowed")
	})

	healthHandler := health.New(deps.pool)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", deps.metrics.Handler())

	docs.RegisterRoutes(r)

	verifier := auth.NewVerifier(deps.config.JWTSecret)

	imageService := images.NewService(deps.store, images.Options{
		Category:   deps.config.Images.Category,
		DefaultURL: deps.config.Images.DefaultURL,
		TTL:        deps.config.Images.SignedURLTTL,
	}, deps.logger, deps.metrics)

	watchService := watches.NewService(watches.NewRepository(deps.pool), imageService, deps.metrics)
	watches.RegisterRoutes(r, watches.NewHandler(watchService), verifier.RequireAdmin)

	catalogService := catalog.NewService(catalog.NewRepository(deps.pool))
	catalog.RegisterRoutes(r, catalog.NewHandler(catalogService))

	watchlistService := watchlist.NewService(watchlist.NewRepository(deps.pool))
	watchlist.RegisterRoutes(r, watchlist.NewHandler(watchlistService), verifier.RequireUser)

	return r
}

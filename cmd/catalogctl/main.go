// catalogctl agrupa las tareas operativas del catálogo: migraciones,
// importación del dataset CSV y emisión de tokens para pruebas.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Lelo88/watch-catalog-api/internal/config"
	"github.com/Lelo88/watch-catalog-api/internal/db"
	"github.com/Lelo88/watch-catalog-api/internal/importer"
	"github.com/Lelo88/watch-catalog-api/internal/logging"
)

// cliPool es lo que los comandos usan del pool.
type cliPool interface {
	importer.TxBeginner
	Close()
}

// cliDeps permite sustituir DB, archivos y logger en tests.
type cliDeps struct {
	loadConfig func() (config.Config, error)
	newLogger  func(level string, asJSON bool) (*zap.Logger, error)
	newPool    func(ctx context.Context, url string) (cliPool, error)
	migrate    func(ctx context.Context, pool cliPool) error
	newStore   func(pool cliPool) importer.Store
	openFile   func(path string) (io.ReadCloser, error)
	getenv     func(key string) string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(defaultDeps()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func defaultDeps() cliDeps {
	return cliDeps{
		loadConfig: func() (config.Config, error) {
			return config.Load()
		},
		newLogger: logging.New,
		newPool: func(ctx context.Context, url string) (cliPool, error) {
			pool, err := db.NewPool(ctx, url)
			if err != nil {
				return nil, err
			}
			return pool, nil
		},
		migrate: func(ctx context.Context, pool cliPool) error {
			pgPool, ok := pool.(*pgxpool.Pool)
			if !ok {
				return errors.New("migrate: unsupported pool type")
			}
			return db.Migrate(ctx, pgPool)
		},
		newStore: func(pool cliPool) importer.Store {
			return importer.NewPgStore(pool)
		},
		openFile: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
		getenv: os.Getenv,
	}
}

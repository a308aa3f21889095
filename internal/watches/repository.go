package watches

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Lelo88/watch-catalog-api/internal/db"
)

// Repository accede a la tabla watch_catalog.
// Contiene SQL y mapeo DB → modelo.
type Repository struct {
	database db.Querier
}

// NewRepository crea un repositorio de relojes.
func NewRepository(database db.Querier) *Repository {
	return &Repository{database: database}
}

// Count devuelve el total exacto de filas que cumplen los filtros.
func (repository *Repository) Count(ctx context.Context, req SearchRequest) (int, error) {
	if repository.database == nil {
		return 0, ErrStorageUnavailable
	}

	query, args, err := CountQuery(req)
	if err != nil {
		return 0, fmt.Errorf("watches: build count: %w", err)
	}

	var total int
	if err := repository.database.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, db.Classify(err)
	}
	return total, nil
}

// List devuelve una página ordenada de relojes.
func (repository *Repository) List(ctx context.Context, req SearchRequest) ([]Watch, error) {
	if repository.database == nil {
		return nil, ErrStorageUnavailable
	}

	query, args, err := PageQuery(req)
	if err != nil {
		return nil, fmt.Errorf("watches: build page: %w", err)
	}

	rows, err := repository.database.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	watches := make([]Watch, 0, req.Limit)
	for rows.Next() {
		watch, err := scanWatch(rows)
		if err != nil {
			return nil, err
		}
		watches = append(watches, watch)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}

	return watches, nil
}

// GetByID busca un reloj por id.
func (repository *Repository) GetByID(ctx context.Context, id int64) (Watch, error) {
	if repository.database == nil {
		return Watch{}, ErrStorageUnavailable
	}

	query, args, err := db.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Watch{}, fmt.Errorf("watches: build get: %w", err)
	}

	watch, err := scanWatch(repository.database.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Watch{}, ErrNotFound
		}
		return Watch{}, db.Classify(err)
	}
	return watch, nil
}

// UpdateFileName reemplaza el archivo de imagen en una sola sentencia.
func (repository *Repository) UpdateFileName(ctx context.Context, id int64, fileName string) error {
	if repository.database == nil {
		return ErrStorageUnavailable
	}

	query, args, err := db.Builder().
		Update(table).
		Set("file_name", fileName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("watches: build update: %w", err)
	}

	tag, err := repository.database.Exec(ctx, query, args...)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

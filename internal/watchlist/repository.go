package watchlist

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Lelo88/watch-catalog-api/internal/db"
)

const table = "user_watchlist"

// Entry es un reloj guardado por un usuario.
type Entry struct {
	UserID    string    `json:"user_id"`
	WatchID   int64     `json:"watch_id"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	Watch     *Summary  `json:"watch,omitempty"`
}

// Summary son los datos del reloj que acompañan a la entrada.
type Summary struct {
	Brand     string  `json:"brand"`
	Family    *string `json:"family"`
	Name      string  `json:"name"`
	Reference *string `json:"reference"`
	FileName  *string `json:"file_name"`
}

// Repository accede a user_watchlist.
type Repository struct {
	database db.Querier
}

// NewRepository crea el repositorio de watchlist.
func NewRepository(database db.Querier) *Repository {
	return &Repository{database: database}
}

// Upsert agrega el reloj o actualiza sus notas si ya estaba.
// Un watch_id inexistente viola la FK y se devuelve ErrNotFound.
func (repository *Repository) Upsert(ctx context.Context, userID string, watchID int64, notes *string) (Entry, error) {
	if repository.database == nil {
		return Entry{}, db.ErrUnavailable
	}

	query, args, err := db.Builder().
		Insert(table).
		Columns("user_id", "watch_id", "notes").
		Values(userID, watchID, notes).
		Suffix("ON CONFLICT (user_id, watch_id) DO UPDATE SET notes = EXCLUDED.notes RETURNING user_id, watch_id, notes, created_at").
		ToSql()
	if err != nil {
		return Entry{}, fmt.Errorf("watchlist: build upsert: %w", err)
	}

	var entry Entry
	err = repository.database.QueryRow(ctx, query, args...).
		Scan(&entry.UserID, &entry.WatchID, &entry.Notes, &entry.CreatedAt)
	if err != nil {
		if db.PgErrorCode(err) == db.CodeForeignKeyViolation {
			return Entry{}, ErrNotFound
		}
		return Entry{}, db.Classify(err)
	}
	return entry, nil
}

// Delete quita el reloj de la lista. Si no estaba devuelve ErrNotFound.
func (repository *Repository) Delete(ctx context.Context, userID string, watchID int64) error {
	if repository.database == nil {
		return db.ErrUnavailable
	}

	query, args, err := db.Builder().
		Delete(table).
		Where(sq.Eq{"user_id": userID, "watch_id": watchID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("watchlist: build delete: %w", err)
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

// List devuelve la lista del usuario, lo más reciente primero.
func (repository *Repository) List(ctx context.Context, userID string) ([]Entry, error) {
	if repository.database == nil {
		return nil, db.ErrUnavailable
	}

	query, args, err := db.Builder().
		Select(
			"w.user_id", "w.watch_id", "w.notes", "w.created_at",
			"c.brand", "c.family", "c.name", "c.reference", "c.file_name",
		).
		From(table + " w").
		Join("watch_catalog c ON c.id = w.watch_id").
		Where(sq.Eq{"w.user_id": userID}).
		OrderBy("w.created_at DESC", "w.watch_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("watchlist: build list: %w", err)
	}

	rows, err := repository.database.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var summary Summary
		if err := rows.Scan(
			&entry.UserID, &entry.WatchID, &entry.Notes, &entry.CreatedAt,
			&summary.Brand, &summary.Family, &summary.Name, &summary.Reference, &summary.FileName,
		); err != nil {
			return nil, err
		}
		entry.Watch = &summary
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return entries, nil
}

package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Lelo88/watch-catalog-api/internal/db"
	"github.com/Lelo88/watch-catalog-api/internal/watches"
)

// insertColumns es el orden de insertValues (todo menos id).
var insertColumns = []string{
	"brand", "family", "name", "reference",
	"cny", "hkd", "usd", "sgd",
	"movement_caliber", "movement_functions", "limited",
	"case_material", "glass", "back", "shape",
	"diameter", "height", "diameter_mm", "height_mm",
	"wr", "dial_color", "indexes", "hands", "description", "file_name",
}

func insertValues(watch watches.Watch) []any {
	return []any{
		watch.Brand, watch.Family, watch.Name, watch.Reference,
		watch.CNY, watch.HKD, watch.USD, watch.SGD,
		watch.MovementCaliber, watch.MovementFunctions, watch.Limited,
		watch.CaseMaterial, watch.Glass, watch.Back, watch.Shape,
		watch.Diameter, watch.Height, watch.DiameterMM, watch.HeightMM,
		watch.WR, watch.DialColor, watch.Indexes, watch.Hands, watch.Description, watch.FileName,
	}
}

// TxBeginner es la parte de *pgxpool.Pool que usa PgStore.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgStore inserta lotes en watch_catalog, un lote por transacción.
type PgStore struct {
	database TxBeginner
}

// NewPgStore crea el store sobre el pool.
func NewPgStore(database TxBeginner) *PgStore {
	return &PgStore{database: database}
}

// InsertBatch inserta todas las filas en un solo INSERT dentro de una transacción.
// Si algo falla no queda ninguna fila del lote.
func (store *PgStore) InsertBatch(ctx context.Context, batch []watches.Watch) (int, error) {
	if store.database == nil {
		return 0, db.ErrUnavailable
	}
	if len(batch) == 0 {
		return 0, nil
	}

	insert := db.Builder().Insert("watch_catalog").Columns(insertColumns...)
	for _, watch := range batch {
		insert = insert.Values(insertValues(watch)...)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("importer: build insert: %w", err)
	}

	var inserted int
	err = pgx.BeginFunc(ctx, store.database, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		inserted = int(tag.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, db.Classify(err)
	}
	return inserted, nil
}

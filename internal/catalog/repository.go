package catalog

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"github.com/Lelo88/watch-catalog-api/internal/db"
)

const table = "watch_catalog"

// Columnas con vocabulario expuesto como filtro.
const (
	columnBrand           = "brand"
	columnCaseMaterial    = "case_material"
	columnMovementCaliber = "movement_caliber"
)

// Repository lee hechos agregados del catálogo. Nunca escribe.
type Repository struct {
	database db.Querier
}

// NewRepository crea el repositorio de hechos del catálogo.
func NewRepository(database db.Querier) *Repository {
	return &Repository{database: database}
}

// Distinct devuelve los valores distintos, no nulos y no vacíos de column,
// sin espacios en los extremos y en orden ascendente. Los filtros de búsqueda
// comparan contra btrim(column), así que cada valor devuelto encuentra filas.
func (repository *Repository) Distinct(ctx context.Context, column string) ([]string, error) {
	if repository.database == nil {
		return nil, db.ErrUnavailable
	}

	query, args, err := distinctQuery(column)
	if err != nil {
		return nil, fmt.Errorf("catalog: build distinct %s: %w", column, err)
	}

	rows, err := repository.database.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err)
	}

	// DISTINCT ya deduplica; Uniq protege de collations que comparan distinto.
	return lo.Uniq(values), nil
}

func distinctQuery(column string) (string, []any, error) {
	return db.Builder().
		Select("btrim(" + column + ") AS value").
		Distinct().
		From(table).
		Where(sq.And{
			sq.NotEq{column: nil},
			sq.Expr("btrim(" + column + ") <> ''"),
		}).
		OrderBy("value ASC").
		ToSql()
}

// Counts devuelve el total de relojes y de marcas distintas.
func (repository *Repository) Counts(ctx context.Context) (watches int, brands int, err error) {
	if repository.database == nil {
		return 0, 0, db.ErrUnavailable
	}

	query, args, err := db.Builder().
		Select("COUNT(*)", "COUNT(DISTINCT btrim(brand))").
		From(table).
		ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("catalog: build stats: %w", err)
	}

	if err := repository.database.QueryRow(ctx, query, args...).Scan(&watches, &brands); err != nil {
		return 0, 0, db.Classify(err)
	}
	return watches, brands, nil
}

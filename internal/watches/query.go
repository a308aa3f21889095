package watches

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/Lelo88/watch-catalog-api/internal/db"
)

const table = "watch_catalog"

// Paginación: default 20, tope 100.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SortField es la columna lógica por la que se ordena.
type SortField string

const (
	SortByName     SortField = "name"
	SortByBrand    SortField = "brand"
	SortByDiameter SortField = "diameter"
)

// SortOrder es la dirección del orden.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchRequest describe una búsqueda sobre el catálogo.
// Los campos vacíos o nil no filtran.
type SearchRequest struct {
	Query        string
	Brand        string
	Family       string
	CaseMaterial string
	MovementType string
	DiameterMin  *float64
	DiameterMax  *float64
	SortBy       SortField
	SortOrder    SortOrder
	Limit        int
	Offset       int
}

// Normalize recorta textos y aplica defaults y tope de limit.
// Limit 0 significa "no vino" y toma el default.
func (req SearchRequest) Normalize() SearchRequest {
	req.Query = strings.TrimSpace(req.Query)
	req.Brand = strings.TrimSpace(req.Brand)
	req.Family = strings.TrimSpace(req.Family)
	req.CaseMaterial = strings.TrimSpace(req.CaseMaterial)
	req.MovementType = strings.TrimSpace(req.MovementType)

	req.SortBy = SortField(strings.ToLower(strings.TrimSpace(string(req.SortBy))))
	if req.SortBy == "" {
		req.SortBy = SortByName
	}
	req.SortOrder = SortOrder(strings.ToLower(strings.TrimSpace(string(req.SortOrder))))
	if req.SortOrder == "" {
		req.SortOrder = SortAsc
	}

	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	return req
}

// Validate rechaza combinaciones imposibles. Se llama después de Normalize.
func (req SearchRequest) Validate() error {
	switch {
	case req.Limit < 1:
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxLimit)
	case req.Offset < 0:
		return fmt.Errorf("%w: offset must be >= 0", ErrInvalidInput)
	case req.SortBy != SortByName && req.SortBy != SortByBrand && req.SortBy != SortByDiameter:
		return fmt.Errorf("%w: unknown sort field %q", ErrInvalidInput, req.SortBy)
	case req.SortOrder != SortAsc && req.SortOrder != SortDesc:
		return fmt.Errorf("%w: unknown sort order %q", ErrInvalidInput, req.SortOrder)
	case req.DiameterMin != nil && *req.DiameterMin < 0,
		req.DiameterMax != nil && *req.DiameterMax < 0:
		return fmt.Errorf("%w: diameter bounds must be >= 0", ErrInvalidInput)
	case req.DiameterMin != nil && req.DiameterMax != nil && *req.DiameterMin > *req.DiameterMax:
		return fmt.Errorf("%w: diameter_min is greater than diameter_max", ErrInvalidInput)
	}
	return nil
}

// Predicates arma el WHERE compartido por la query de conteo y la de página.
// Un diameter_mm NULL nunca cumple una comparación, así que los registros
// con diámetro no numérico quedan fuera de los filtros de rango.
func Predicates(req SearchRequest) sq.And {
	predicates := sq.And{}

	if req.Query != "" {
		pattern := "%" + escapeLike(req.Query) + "%"
		predicates = append(predicates, sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"brand": pattern},
			sq.ILike{"reference": pattern},
		})
	}
	// Los filtros exactos comparan sin espacios en los extremos, igual que
	// los vocabularios de /filters.
	if req.Brand != "" {
		predicates = append(predicates, trimmedEq("brand", req.Brand))
	}
	if req.Family != "" {
		predicates = append(predicates, trimmedEq("family", req.Family))
	}
	if req.CaseMaterial != "" {
		predicates = append(predicates, trimmedEq("case_material", req.CaseMaterial))
	}
	if req.MovementType != "" {
		predicates = append(predicates, trimmedEq("movement_caliber", req.MovementType))
	}
	if req.DiameterMin != nil {
		predicates = append(predicates, sq.GtOrEq{"diameter_mm": *req.DiameterMin})
	}
	if req.DiameterMax != nil {
		predicates = append(predicates, sq.LtOrEq{"diameter_mm": *req.DiameterMax})
	}

	return predicates
}

func trimmedEq(column, value string) sq.Sqlizer {
	return sq.Expr("btrim("+column+") = ?", value)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike hace que el texto del usuario sea un substring literal.
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

// CountQuery cuenta todas las filas que cumplen los filtros.
func CountQuery(req SearchRequest) (string, []any, error) {
	query := db.Builder().Select("COUNT(*)").From(table)
	if predicates := Predicates(req); len(predicates) > 0 {
		query = query.Where(predicates)
	}
	return query.ToSql()
}

// PageQuery devuelve la página pedida. El orden es total: siempre termina
// en id ASC y los diámetros NULL van al final en ambas direcciones.
func PageQuery(req SearchRequest) (string, []any, error) {
	query := db.Builder().Select(columns...).From(table)
	if predicates := Predicates(req); len(predicates) > 0 {
		query = query.Where(predicates)
	}
	return query.
		OrderBy(orderBy(req)...).
		Limit(uint64(req.Limit)).
		Offset(uint64(req.Offset)).
		ToSql()
}

func orderBy(req SearchRequest) []string {
	direction := "ASC"
	if req.SortOrder == SortDesc {
		direction = "DESC"
	}

	var primary string
	switch req.SortBy {
	case SortByBrand:
		primary = "brand " + direction
	case SortByDiameter:
		primary = "diameter_mm " + direction + " NULLS LAST"
	default:
		primary = "name " + direction
	}
	return []string{primary, "id ASC"}
}

package watches

import (
	"github.com/shopspring/decimal"
)

// Watch representa una fila de watch_catalog.
// Los campos opcionales son punteros: null en JSON cuando no hay dato.
// Diameter/Height conservan el texto original; DiameterMM/HeightMM son el
// valor normalizado en la importación (nil si el texto no era numérico).
type Watch struct {
	ID                int64            `json:"id"`
	Brand             string           `json:"brand"`
	Family            *string          `json:"family"`
	Name              string           `json:"name"`
	Reference         *string          `json:"reference"`
	CNY               *decimal.Decimal `json:"cny"`
	HKD               *decimal.Decimal `json:"hkd"`
	USD               *decimal.Decimal `json:"usd"`
	SGD               *decimal.Decimal `json:"sgd"`
	MovementCaliber   *string          `json:"movement_caliber"`
	MovementFunctions *string          `json:"movement_functions"`
	Limited           *string          `json:"limited"`
	CaseMaterial      *string          `json:"case_material"`
	Glass             *string          `json:"glass"`
	Back              *string          `json:"back"`
	Shape             *string          `json:"shape"`
	Diameter          *string          `json:"diameter"`
	Height            *string          `json:"height"`
	DiameterMM        *float64         `json:"diameter_mm"`
	HeightMM          *float64         `json:"height_mm"`
	WR                *string          `json:"wr"`
	DialColor         *string          `json:"dial_color"`
	Indexes           *string          `json:"indexes"`
	Hands             *string          `json:"hands"`
	Description       *string          `json:"description"`
	FileName          *string          `json:"file_name"`
}

// SearchResult es una página de resultados más el total exacto.
type SearchResult struct {
	Watches []Watch `json:"watches"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// scanner es la parte común de pgx.Row y pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// columns mantiene el orden que espera scanWatch.
var columns = []string{
	"id", "brand", "family", "name", "reference",
	"cny", "hkd", "usd", "sgd",
	"movement_caliber", "movement_functions", "limited",
	"case_material", "glass", "back", "shape",
	"diameter", "height", "diameter_mm", "height_mm",
	"wr", "dial_color", "indexes", "hands", "description", "file_name",
}

func scanWatch(row scanner) (Watch, error) {
	var watch Watch
	err := row.Scan(
		&watch.ID, &watch.Brand, &watch.Family, &watch.Name, &watch.Reference,
		&watch.CNY, &watch.HKD, &watch.USD, &watch.SGD,
		&watch.MovementCaliber, &watch.MovementFunctions, &watch.Limited,
		&watch.CaseMaterial, &watch.Glass, &watch.Back, &watch.Shape,
		&watch.Diameter, &watch.Height, &watch.DiameterMM, &watch.HeightMM,
		&watch.WR, &watch.DialColor, &watch.Indexes, &watch.Hands, &watch.Description, &watch.FileName,
	)
	return watch, err
}

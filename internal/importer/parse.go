package importer

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Lelo88/watch-catalog-api/internal/watches"
)

var (
	// ErrInvalidRow marca una fila que se descarta sin abortar la importación.
	ErrInvalidRow = errors.New("invalid row")
	// ErrMissingColumn indica que el header no trae una columna obligatoria.
	ErrMissingColumn = errors.New("missing required column")
)

// Nombres de columna del dataset, en minúsculas.
const (
	colBrand             = "brand"
	colFamily            = "family"
	colName              = "name"
	colReference         = "reference"
	colMovementCaliber   = "movement_caliber"
	colMovementFunctions = "movement_functions"
	colLimited           = "limited"
	colCaseMaterial      = "case material"
	colGlass             = "glass"
	colBack              = "back"
	colShape             = "shape"
	colDiameter          = "diameter"
	colHeight            = "height"
	colWR                = "w/r"
	colDialColor         = "dial color"
	colIndexes           = "indexes"
	colHands             = "hands"
	colDescription       = "description"
	colImage             = "image"
	colCNY               = "cny"
	colHKD               = "hkd"
	colUSD               = "usd"
	colSGD               = "sgd"
)

const maxMeasure = 999.99

// NUMERIC(12,2)
var maxPrice = decimal.New(1, 10).Sub(decimal.New(1, -2))

var firstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Header mapea nombre de columna (minúsculas) a su posición.
type Header struct {
	index map[string]int
	width int
}

// ParseHeader valida la fila de encabezados. brand y name son obligatorias.
func ParseHeader(record []string) (Header, error) {
	names := lo.Map(record, func(name string, i int) string {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		return strings.ToLower(strings.TrimSpace(name))
	})

	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, seen := index[name]; !seen && name != "" {
			index[name] = i
		}
	}

	for _, required := range []string{colBrand, colName} {
		if _, ok := index[required]; !ok {
			return Header{}, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	return Header{index: index, width: len(record)}, nil
}

func (header Header) text(record []string, column string) *string {
	i, ok := header.index[column]
	if !ok {
		return nil
	}
	value := strings.TrimSpace(record[i])
	if value == "" {
		return nil
	}
	return &value
}

// ParseRecord convierte una fila del CSV en un reloj listo para insertar.
func ParseRecord(header Header, record []string) (watches.Watch, error) {
	if len(record) != header.width {
		return watches.Watch{}, fmt.Errorf("%w: expected %d fields, got %d", ErrInvalidRow, header.width, len(record))
	}

	brand := header.text(record, colBrand)
	name := header.text(record, colName)
	if brand == nil || name == nil {
		return watches.Watch{}, fmt.Errorf("%w: brand and name are required", ErrInvalidRow)
	}

	watch := watches.Watch{
		Brand:             *brand,
		Name:              *name,
		Family:            header.text(record, colFamily),
		Reference:         header.text(record, colReference),
		MovementCaliber:   header.text(record, colMovementCaliber),
		MovementFunctions: header.text(record, colMovementFunctions),
		Limited:           header.text(record, colLimited),
		CaseMaterial:      header.text(record, colCaseMaterial),
		Glass:             header.text(record, colGlass),
		Back:              header.text(record, colBack),
		Shape:             header.text(record, colShape),
		Diameter:          header.text(record, colDiameter),
		Height:            header.text(record, colHeight),
		WR:                header.text(record, colWR),
		DialColor:         header.text(record, colDialColor),
		Indexes:           header.text(record, colIndexes),
		Hands:             header.text(record, colHands),
		Description:       header.text(record, colDescription),
		FileName:          header.text(record, colImage),
	}
	watch.DiameterMM = ParseMeasure(lo.FromPtr(watch.Diameter))
	watch.HeightMM = ParseMeasure(lo.FromPtr(watch.Height))

	prices := []struct {
		column string
		target **decimal.Decimal
	}{
		{colCNY, &watch.CNY},
		{colHKD, &watch.HKD},
		{colUSD, &watch.USD},
		{colSGD, &watch.SGD},
	}
	for _, price := range prices {
		value, err := ParsePrice(lo.FromPtr(header.text(record, price.column)))
		if err != nil {
			return watches.Watch{}, fmt.Errorf("%w: %s: %v", ErrInvalidRow, price.column, err)
		}
		*price.target = value
	}

	return watch, nil
}

// ParseMeasure toma el primer número del texto ("42.5 mm" → 42.5).
// Devuelve nil si no hay número; el valor se limita a 999.99.
func ParseMeasure(text string) *float64 {
	match := firstNumber.FindString(text)
	if match == "" {
		return nil
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	value = math.Min(value, maxMeasure)
	return &value
}

// ParsePrice limpia símbolos de moneda y separadores de miles.
// Vacío (o "-") es nil; negativos y textos no numéricos son error.
func ParsePrice(text string) (*decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(text))

	if cleaned == "" || cleaned == "-" {
		if strings.TrimSpace(text) == "" || strings.TrimSpace(text) == "-" {
			return nil, nil
		}
		return nil, fmt.Errorf("not a price: %q", text)
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("not a price: %q", text)
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("negative price: %q", text)
	}
	if value.GreaterThan(maxPrice) {
		return nil, fmt.Errorf("price out of range: %q", text)
	}
	value = value.Round(2)
	return &value, nil
}

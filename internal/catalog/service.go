package catalog

import (
	"context"
)

// Stats son las estadísticas agregadas del catálogo.
// Features y precios históricos no existen en este esquema: se reportan en
// cero con FeaturesAvailable=false.
type Stats struct {
	TotalWatches      int  `json:"total_watches"`
	TotalBrands       int  `json:"total_brands"`
	TotalFeatures     int  `json:"total_features"`
	TotalPriceRecords int  `json:"total_price_records"`
	FeaturesAvailable bool `json:"features_available"`
}

// RepositoryAPI define lo que el service necesita del repositorio.
type RepositoryAPI interface {
	Distinct(ctx context.Context, column string) ([]string, error)
	Counts(ctx context.Context) (watches int, brands int, err error)
}

// Service expone los vocabularios de filtros y las estadísticas.
type Service struct {
	repository RepositoryAPI
}

// NewService crea el service de hechos del catálogo.
func NewService(repository RepositoryAPI) *Service {
	return &Service{repository: repository}
}

// Brands devuelve las marcas distintas.
func (service *Service) Brands(ctx context.Context) ([]string, error) {
	return service.repository.Distinct(ctx, columnBrand)
}

// CaseMaterials devuelve los materiales de caja distintos.
func (service *Service) CaseMaterials(ctx context.Context) ([]string, error) {
	return service.repository.Distinct(ctx, columnCaseMaterial)
}

// MovementTypes devuelve los calibres distintos.
func (service *Service) MovementTypes(ctx context.Context) ([]string, error) {
	return service.repository.Distinct(ctx, columnMovementCaliber)
}

// Stats calcula las estadísticas del catálogo.
func (service *Service) Stats(ctx context.Context) (Stats, error) {
	watches, brands, err := service.repository.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalWatches: watches,
		TotalBrands:  brands,
	}, nil
}

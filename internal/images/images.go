// Package images resuelve la imagen de un reloj a una URL firmada del
// object store, cayendo siempre a una imagen por defecto.
package images

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Status indica si la URL devuelta apunta al objeto real o al default.
type Status string

const (
	StatusResolved   Status = "resolved"
	StatusUnresolved Status = "unresolved"
)

// Resultados que se reportan al Recorder en cada resolución.
const (
	OutcomeResolved    = "resolved"
	OutcomeNoFilename  = "no_filename"
	OutcomeNoStore     = "no_store"
	OutcomeMissing     = "missing"
	OutcomeLookupError = "lookup_error"
	OutcomeSignError   = "sign_error"
)

// ErrNoStore indica que no hay object store configurado para escribir.
var ErrNoStore = errors.New("object store not configured")

// Resolution es el resultado de resolver una imagen.
// URL nunca está vacía: si no se pudo firmar, es la imagen por defecto.
type Resolution struct {
	URL       string
	Status    Status
	Key       string
	ExpiresAt *time.Time
}

// Resolved indica si la URL es una URL firmada del objeto real.
func (resolution Resolution) Resolved() bool {
	return resolution.Status == StatusResolved
}

// Subject son los datos del registro que determinan la key.
type Subject struct {
	Brand    string
	Family   *string
	FileName *string
}

// ObjectStore es el colaborador externo de almacenamiento.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Recorder recibe el resultado de cada resolución (métricas).
type Recorder interface {
	ImageResolved(outcome string)
}

// Options configura el Service.
type Options struct {
	Category   string
	DefaultURL string
	TTL        time.Duration
}

// Service resuelve, sube y borra imágenes de relojes.
// No cachea: cada llamada vuelve a consultar el store y firma de nuevo.
type Service struct {
	store    ObjectStore
	options  Options
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// NewService crea el servicio. store puede ser nil: todo resuelve al default.
func NewService(store ObjectStore, options Options, logger *zap.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.TTL <= 0 {
		options.TTL = time.Hour
	}
	return &Service{
		store:    store,
		options:  options,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// StorageKey arma la key "categoria/marca/familia/archivo".
// Los segmentos vacíos se omiten y se quitan barras sobrantes.
func StorageKey(category, brand, family, fileName string) string {
	segments := lo.Map([]string{category, brand, family, fileName}, func(segment string, _ int) string {
		return strings.Trim(strings.TrimSpace(segment), "/")
	})
	return strings.Join(lo.Compact(segments), "/")
}

// Key devuelve la key del subject, o "" si no tiene archivo.
func (service *Service) Key(subject Subject) string {
	fileName := strings.TrimSpace(lo.FromPtr(subject.FileName))
	if fileName == "" {
		return ""
	}
	return StorageKey(service.options.Category, subject.Brand, lo.FromPtr(subject.Family), fileName)
}

// Resolve nunca falla: cualquier problema termina en la imagen por defecto.
func (service *Service) Resolve(ctx context.Context, subject Subject) Resolution {
	key := service.Key(subject)
	if key == "" {
		return service.fallback("", OutcomeNoFilename)
	}
	if service.store == nil {
		return service.fallback(key, OutcomeNoStore)
	}

	exists, err := service.store.Exists(ctx, key)
	if err != nil {
		service.logger.Warn("image lookup failed", zap.String("key", key), zap.Error(err))
		return service.fallback(key, OutcomeLookupError)
	}
	if !exists {
		service.logger.Debug("image not found", zap.String("key", key))
		return service.fallback(key, OutcomeMissing)
	}

	url, err := service.store.PresignGet(ctx, key, service.options.TTL)
	if err != nil {
		service.logger.Warn("image signing failed", zap.String("key", key), zap.Error(err))
		return service.fallback(key, OutcomeSignError)
	}

	expiresAt := service.now().UTC().Add(service.options.TTL)
	service.record(OutcomeResolved)
	return Resolution{
		URL:       url,
		Status:    StatusResolved,
		Key:       key,
		ExpiresAt: &expiresAt,
	}
}

// Upload sube el contenido a la key del subject y la devuelve.
func (service *Service) Upload(ctx context.Context, subject Subject, body io.Reader, size int64, contentType string) (string, error) {
	if service.store == nil {
		return "", ErrNoStore
	}
	key := service.Key(subject)
	if key == "" {
		return "", errors.New("images: subject has no file name")
	}
	if err := service.store.Put(ctx, key, body, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Remove borra el objeto del subject. Sin archivo no hace nada.
func (service *Service) Remove(ctx context.Context, subject Subject) error {
	if service.store == nil {
		return ErrNoStore
	}
	key := service.Key(subject)
	if key == "" {
		return nil
	}
	if err := service.store.Delete(ctx, key); err != nil {
		service.logger.Warn("image delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (service *Service) fallback(key, outcome string) Resolution {
	service.record(outcome)
	return Resolution{
		URL:    service.options.DefaultURL,
		Status: StatusUnresolved,
		Key:    key,
	}
}

func (service *Service) record(outcome string) {
	if service.recorder != nil {
		service.recorder.ImageResolved(outcome)
	}
}

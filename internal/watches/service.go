package watches

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Lelo88/watch-catalog-api/internal/db"
	"github.com/Lelo88/watch-catalog-api/internal/images"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("watch not found")
	// ErrStorageUnavailable es el mismo sentinel que db.ErrUnavailable.
	ErrStorageUnavailable = db.ErrUnavailable
)

// MaxImageBytes es el tamaño máximo de una imagen subida.
const MaxImageBytes = 10 << 20

var allowedImageExt = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// RepositoryAPI define lo que el service necesita del repositorio.
type RepositoryAPI interface {
	Count(ctx context.Context, req SearchRequest) (int, error)
	List(ctx context.Context, req SearchRequest) ([]Watch, error)
	GetByID(ctx context.Context, id int64) (Watch, error)
	UpdateFileName(ctx context.Context, id int64, fileName string) error
}

// ImageService es la parte de images.Service que usa el catálogo.
type ImageService interface {
	Resolve(ctx context.Context, subject images.Subject) images.Resolution
	Upload(ctx context.Context, subject images.Subject, body io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, subject images.Subject) error
}

// SearchObserver recibe la duración de cada búsqueda.
type SearchObserver interface {
	ObserveSearch(duration time.Duration)
}

// ImageUpload es el archivo recibido en el endpoint de administración.
type ImageUpload struct {
	Body        io.Reader
	Size        int64
	FileName    string
	ContentType string
}

// Service contiene las reglas de negocio del catálogo.
type Service struct {
	repository RepositoryAPI
	images     ImageService
	observer   SearchObserver
	newName    func(ext string) string
}

// NewService crea un service de relojes. observer puede ser nil.
func NewService(repository RepositoryAPI, imageService ImageService, observer SearchObserver) *Service {
	return &Service{
		repository: repository,
		images:     imageService,
		observer:   observer,
		newName: func(ext string) string {
			return uuid.NewString() + ext
		},
	}
}

// Search valida el pedido, cuenta el total y trae la página.
// Conteo y página usan exactamente los mismos predicados.
func (service *Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return SearchResult{}, err
	}

	start := time.Now()
	defer func() {
		if service.observer != nil {
			service.observer.ObserveSearch(time.Since(start))
		}
	}()

	total, err := service.repository.Count(ctx, req)
	if err != nil {
		return SearchResult{}, err
	}

	watches, err := service.repository.List(ctx, req)
	if err != nil {
		return SearchResult{}, err
	}

	return SearchResult{
		Watches: watches,
		Total:   total,
		Limit:   req.Limit,
		Offset:  req.Offset,
	}, nil
}

// Get obtiene un reloj por id.
func (service *Service) Get(ctx context.Context, id int64) (Watch, error) {
	if id < 1 {
		return Watch{}, ErrInvalidInput
	}
	return service.repository.GetByID(ctx, id)
}

// ImageURL resuelve la imagen del reloj. Solo falla si el reloj no existe
// o no se pudo leer; los problemas de imagen devuelven el default.
func (service *Service) ImageURL(ctx context.Context, id int64) (images.Resolution, error) {
	watch, err := service.Get(ctx, id)
	if err != nil {
		return images.Resolution{}, err
	}
	return service.images.Resolve(ctx, subjectOf(watch)), nil
}

// ReplaceImage sube una imagen nueva con nombre único, actualiza file_name
// y borra la anterior. Si la actualización falla se borra lo subido.
func (service *Service) ReplaceImage(ctx context.Context, id int64, upload ImageUpload) (images.Resolution, error) {
	ext := strings.ToLower(filepath.Ext(upload.FileName))
	if !lo.Contains(allowedImageExt, ext) {
		return images.Resolution{}, fmt.Errorf("%w: unsupported image type %q", ErrInvalidInput, ext)
	}
	if upload.Size > MaxImageBytes {
		return images.Resolution{}, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, MaxImageBytes)
	}

	watch, err := service.Get(ctx, id)
	if err != nil {
		return images.Resolution{}, err
	}

	previous := subjectOf(watch)
	next := previous
	next.FileName = lo.ToPtr(service.newName(ext))

	if _, err := service.images.Upload(ctx, next, upload.Body, upload.Size, upload.ContentType); err != nil {
		return images.Resolution{}, fmt.Errorf("watches: upload image: %w", err)
	}

	if err := service.repository.UpdateFileName(ctx, id, *next.FileName); err != nil {
		_ = service.images.Remove(ctx, next)
		return images.Resolution{}, err
	}

	if lo.FromPtr(previous.FileName) != "" {
		// El registro ya apunta a la nueva imagen; un fallo acá solo deja basura.
		_ = service.images.Remove(ctx, previous)
	}

	return service.images.Resolve(ctx, next), nil
}

func subjectOf(watch Watch) images.Subject {
	return images.Subject{
		Brand:    watch.Brand,
		Family:   watch.Family,
		FileName: watch.FileName,
	}
}

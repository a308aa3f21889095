package watchlist

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Lelo88/watch-catalog-api/internal/auth"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("watchlist entry not found")
)

const maxNotesLength = 1000

// RepositoryAPI define lo que el service necesita del repositorio.
type RepositoryAPI interface {
	Upsert(ctx context.Context, userID string, watchID int64, notes *string) (Entry, error)
	Delete(ctx context.Context, userID string, watchID int64) error
	List(ctx context.Context, userID string) ([]Entry, error)
}

// Service contiene las reglas de la watchlist.
type Service struct {
	repository RepositoryAPI
}

// NewService crea el service de watchlist.
func NewService(repository RepositoryAPI) *Service {
	return &Service{repository: repository}
}

// Add guarda un reloj en la lista del usuario. Notas vacías se guardan como NULL.
func (service *Service) Add(ctx context.Context, userID string, watchID int64, notes *string) (Entry, error) {
	if !validUser(userID) || watchID < 1 {
		return Entry{}, ErrInvalidInput
	}
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		if utf8.RuneCountInString(trimmed) > maxNotesLength {
			return Entry{}, ErrInvalidInput
		}
		notes = &trimmed
		if trimmed == "" {
			notes = nil
		}
	}
	return service.repository.Upsert(ctx, userID, watchID, notes)
}

// Remove quita un reloj de la lista del usuario.
func (service *Service) Remove(ctx context.Context, userID string, watchID int64) error {
	if !validUser(userID) || watchID < 1 {
		return ErrInvalidInput
	}
	return service.repository.Delete(ctx, userID, watchID)
}

// List devuelve la lista del usuario.
func (service *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	if !validUser(userID) {
		return nil, ErrInvalidInput
	}
	return service.repository.List(ctx, userID)
}

// validUser exige un id que entre en user_watchlist.user_id.
func validUser(userID string) bool {
	return strings.TrimSpace(userID) != "" && utf8.RuneCountInString(userID) <= auth.MaxSubjectLength
}

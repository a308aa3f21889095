// Package auth verifica tokens Bearer (JWT HS256) y expone la identidad
// del usuario en el contexto del request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Lelo88/watch-catalog-api/internal/httpx"
)

// Roles conocidos.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// MaxSubjectLength es el largo máximo del sub, igual a user_watchlist.user_id.
const MaxSubjectLength = 64

var (
	ErrMissingToken = errors.New("authorization header required")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("token verification disabled")
)

// Identity es el usuario autenticado.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin indica si la identidad tiene rol de administrador.
func (identity Identity) IsAdmin() bool {
	return identity.Role == RoleAdmin
}

// Claims son los claims que emite y acepta la API. El usuario va en "sub".
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier valida y emite tokens con un secreto compartido.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier crea el verificador. Con secreto vacío rechaza todo.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify parsea el token y devuelve la identidad.
// Solo se acepta HS256 y el token debe tener expiración y sujeto.
func (verifier *Verifier) Verify(token string) (Identity, error) {
	if len(verifier.secret) == 0 {
		return Identity{}, ErrNoSecret
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return verifier.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(verifier.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || !validSubject(claims.Subject) {
		return Identity{}, ErrInvalidToken
	}

	role := claims.Role
	if role == "" {
		role = RoleUser
	}
	return Identity{UserID: claims.Subject, Role: role}, nil
}

func validSubject(subject string) bool {
	return strings.TrimSpace(subject) != "" && utf8.RuneCountInString(subject) <= MaxSubjectLength
}

// Issue firma un token para el usuario. Lo usa catalogctl para operadores.
func (verifier *Verifier) Issue(userID, role string, ttl time.Duration) (string, error) {
	if len(verifier.secret) == 0 {
		return "", ErrNoSecret
	}
	if !validSubject(userID) {
		return "", fmt.Errorf("auth: user id must be 1 to %d characters", MaxSubjectLength)
	}

	now := verifier.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(verifier.secret)
}

type identityKey struct{}

// WithIdentity guarda la identidad en el contexto.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext devuelve la identidad autenticada, si hay.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

// bearerToken extrae el token de "Authorization: Bearer <token>".
func bearerToken(request *http.Request) (string, error) {
	header := strings.TrimSpace(request.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// RequireUser exige un token válido y deja la identidad en el contexto.
func (verifier *Verifier) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token, err := bearerToken(request)
		if err != nil {
			httpx.Fail(writer, request, http.StatusUnauthorized, httpx.CodeUnauthorized, err.Error())
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			httpx.Fail(writer, request, http.StatusUnauthorized, httpx.CodeUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(writer, request.WithContext(WithIdentity(request.Context(), identity)))
	})
}

// RequireAdmin exige un token válido con rol admin.
func (verifier *Verifier) RequireAdmin(next http.Handler) http.Handler {
	return verifier.RequireUser(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		identity, _ := FromContext(request.Context())
		if !identity.IsAdmin() {
			httpx.Fail(writer, request, http.StatusForbidden, httpx.CodeForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(writer, request)
	}))
}

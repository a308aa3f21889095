package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestVerifier_IssueAndVerify(t *testing.T) {
	verifier := NewVerifier(secret)

	token, err := verifier.Issue("user-1", RoleAdmin, time.Hour)
	require.NoError(t, err)

	identity, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, Identity{UserID: "user-1", Role: RoleAdmin}, identity)
	require.True(t, identity.IsAdmin())
}

func TestVerifier_Verify(t *testing.T) {
	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	t.Run("empty role defaults to user", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: future},
		})

		identity, err := NewVerifier(secret).Verify(token)

		require.NoError(t, err)
		require.Equal(t, RoleUser, identity.Role)
		require.False(t, identity.IsAdmin())
	})

	t.Run("expired", func(t *testing.T) {
		verifier := NewVerifier(secret)
		token, err := verifier.Issue("u", RoleUser, time.Minute)
		require.NoError(t, err)
		verifier.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err = verifier.Verify(token)

		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiration", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
		})

		_, err := NewVerifier(secret).Verify(token)

		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
		})

		_, err := NewVerifier(secret).Verify(token)

		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("subject longer than the user id column", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: strings.Repeat("u", MaxSubjectLength+1), ExpiresAt: future},
		})

		_, err := NewVerifier(secret).Verify(token)

		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("subject at the limit", func(t *testing.T) {
		subject := strings.Repeat("ñ", MaxSubjectLength)
		token := sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: subject, ExpiresAt: future},
		})

		identity, err := NewVerifier(secret).Verify(token)

		require.NoError(t, err)
		require.Equal(t, subject, identity.UserID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("other"), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: future},
		})

		_, err := NewVerifier(secret).Verify(token)

		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithms are rejected", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS512, []byte(secret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: future},
		})

		_, err := NewVerifier(secret).Verify(token)

		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no secret configured", func(t *testing.T) {
		_, err := NewVerifier("").Verify("anything")

		require.ErrorIs(t, err, ErrNoSecret)
	})
}

func TestVerifier_Issue(t *testing.T) {
	_, err := NewVerifier("").Issue("u", RoleUser, time.Hour)
	require.ErrorIs(t, err, ErrNoSecret)

	_, err = NewVerifier(secret).Issue(" ", RoleUser, time.Hour)
	require.Error(t, err)

	_, err = NewVerifier(secret).Issue(strings.Repeat("u", MaxSubjectLength+1), RoleUser, time.Hour)
	require.ErrorContains(t, err, "user id must be")
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u", Role: RoleUser})
	identity, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u", identity.UserID)
}

func TestMiddleware(t *testing.T) {
	verifier := NewVerifier(secret)
	userToken, err := verifier.Issue("user-1", RoleUser, time.Hour)
	require.NoError(t, err)
	adminToken, err := verifier.Issue("admin-1", RoleAdmin, time.Hour)
	require.NoError(t, err)

	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		middleware func(http.Handler) http.Handler
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "user without header", middleware: verifier.RequireUser, wantStatus: http.StatusUnauthorized},
		{name: "user wrong scheme", middleware: verifier.RequireUser, header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "user garbage token", middleware: verifier.RequireUser, header: "Bearer abc", wantStatus: http.StatusUnauthorized},
		{name: "user ok", middleware: verifier.RequireUser, header: "Bearer " + userToken, wantStatus: http.StatusNoContent, wantUser: "user-1"},
		{name: "lowercase scheme", middleware: verifier.RequireUser, header: "bearer " + userToken, wantStatus: http.StatusNoContent, wantUser: "user-1"},
		{name: "admin without header", middleware: verifier.RequireAdmin, wantStatus: http.StatusUnauthorized},
		{name: "admin with user token", middleware: verifier.RequireAdmin, header: "Bearer " + userToken, wantStatus: http.StatusForbidden},
		{name: "admin ok", middleware: verifier.RequireAdmin, header: "Bearer " + adminToken, wantStatus: http.StatusNoContent, wantUser: "admin-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Identity{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			tt.middleware(next).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantUser, seen.UserID)
		})
	}
}

// Package middleware provides HTTP middlewares for authentication and metrics.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/unidocs/internal/apperr"
	"github.com/atinyakov/unidocs/internal/models"
	"github.com/atinyakov/unidocs/internal/server/response"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// TokenValidator parses bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.Claims, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer"
// token and stores the token's claims in the request context.
func BearerAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Error(w, apperr.Clone(apperr.ErrUnauthorized, "missing token"))
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				response.Error(w, apperr.Clone(apperr.ErrUnauthorized, "invalid authorization header"))
				return
			}

			claims, err := v.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				response.Error(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the authenticated claims, or nil.
func ClaimsFromContext(ctx context.Context) *models.Claims {
	claims, _ := ctx.Value(claimsKey).(*models.Claims)
	return claims
}

package auth

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/platform/httpx"
)

type contextKey struct{}

var claimsKey contextKey

// ClaimsFromContext returns the verified claims attached by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// Verifier validates access tokens.
type Verifier interface {
	VerifyAccessToken(tokenString string) (*Claims, error)
}

// Middleware guards routes with token verification and permission checks.
type Middleware struct {
	verifier Verifier
}

// NewMiddleware constructs a Middleware.
func NewMiddleware(verifier Verifier) Middleware {
	return Middleware{verifier: verifier}
}

// Authenticate requires a valid bearer token and stores its claims in the
// request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized",
				"missing bearer token", apperr.CodeInvalidCredentials)
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized",
				"invalid or expired token", apperr.CodeInvalidCredentials)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermissions rejects requests whose token snapshot lacks any of the
// given permission ids. The snapshot may lag the store of record; services
// re-check authority against the resolver on every grant decision.
func (m Middleware) RequirePermissions(ids ...int32) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized",
					"missing bearer token", apperr.CodeInvalidCredentials)
				return
			}
			for _, id := range ids {
				if !slices.Contains(claims.Permissions, id) {
					httpx.Problem(w, http.StatusForbidden, "Forbidden",
						"insufficient permissions", apperr.CodeForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

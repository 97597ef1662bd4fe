package auth

import (
	"net/http"
	"strings"

	"github.com/openlingo/openlingo/internal/rbac"
)

// JWTMiddleware validates the bearer token, rejects revoked sessions and
// attaches subject, role and claims to the request context.
func JWTMiddleware(a *AuthService, sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil || claims == nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			if sessions != nil && claims.SessionID != "" && !sessions.Alive(r.Context(), claims.SessionID) {
				http.Error(w, "session revoked", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), claims.Sub)
			ctx = WithClaims(ctx, claims)
			ctx = rbac.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

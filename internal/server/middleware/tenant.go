package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tessera-labs/tessera/internal/nav"
)

// TenantContext resolves the authenticated user's current tenant from the
// navigation session and stores its ID in the request context. Requests with
// no current tenant pass through untouched; handlers that need one chain
// RequireTenant after this.
func TenantContext(sessions *nav.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if t := sessions.Session(userID).Context.Resolve(); t != nil {
				ctx := context.WithValue(r.Context(), ContextKeyTenantID, t.ID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid, ok := TenantIDFromContext(r.Context())
			if !ok || tid == uuid.Nil {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"valid tenant required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

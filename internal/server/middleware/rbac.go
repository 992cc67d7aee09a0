package middleware

import (
	"net/http"

	"github.com/tessera-labs/tessera/internal/domain"
)

// RequireLevel returns middleware that checks the authenticated user's role
// level against a minimum. It must be chained after the Auth middleware,
// which stores the level in the request context via ContextKeyUserLevel.
//
// Returns 401 Unauthorized when no user is found in context (Auth middleware
// not applied or authentication failed). Returns 403 Forbidden when the
// user's level is below the minimum.
func RequireLevel(min int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			level, ok := UserLevelFromContext(r.Context())
			if !ok {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			if level < min {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience wrapper for RequireLevel(domain.LevelAdmin).
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireLevel(domain.LevelAdmin)
}

// RequireSuperAdmin gates cross-tenant platform operations.
func RequireSuperAdmin() func(http.Handler) http.Handler {
	return RequireLevel(domain.LevelSuperAdmin)
}

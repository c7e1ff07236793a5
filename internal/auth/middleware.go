package auth

import (
	"net/http"
	"strings"

	"github.com/texfab-erp/texfab-erp/internal/platform/httpx"
	"github.com/texfab-erp/texfab-erp/internal/shared"
)

// Middleware attaches the caller identity and enforces role requirements.
type Middleware struct {
	Service *Service
}

// RequireAuth rejects requests without a valid bearer token and stores the
// identity in the request context for downstream handlers.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		identity, err := m.Service.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only the listed roles. Admin always passes.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !identity.IsAdmin() && !allowed[identity.Role] {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is shorthand for admin-only routes.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(RoleAdmin)(next)
}

// CurrentIdentity pulls the authenticated identity off the request context.
// Returns false when the request never passed through RequireAuth.
func CurrentIdentity(r *http.Request) (*shared.Identity, bool) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		return nil, false
	}
	return identity, true
}

package httpapi

import (
	"net/http"
	"strings"

	"github.com/DmitriyGrigoriev/rolegate/internal/auth"
)

const (
	authHeader   = "Authorization"
	bearerScheme = "Bearer "
)

// withAuth resolves a bearer token into a principal on the request context.
// Requests without an Authorization header pass through anonymously; the
// per-route guards decide whether anonymity is acceptable. A header that is
// present but unusable is rejected here.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(authHeader)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(header, bearerScheme) {
			writeError(w, r, http.StatusUnauthorized, "authorization header must use the Bearer scheme")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, bearerScheme))
		if raw == "" {
			writeError(w, r, http.StatusUnauthorized, "bearer token is empty")
			return
		}

		principal, err := a.svc.Authenticate(r.Context(), raw)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePrincipal rejects anonymous requests.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return principal, true
}

// requireAdmin additionally requires the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return nil, false
	}
	if !principal.HasRoleCode(auth.AdminRoleCode) {
		writeError(w, r, http.StatusForbidden, "insufficient permissions")
		return nil, false
	}
	return principal, true
}

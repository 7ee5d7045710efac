package auth

import "context"

// Principal is an authenticated user with resolved roles, threaded through
// the request context by the authentication middleware.
type Principal struct {
	User  *User
	Roles []Role
}

// RoleIDs returns the ids of the principal's roles.
func (p *Principal) RoleIDs() []string {
	ids := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

// HasRoleCode reports whether the principal holds a role with the given code.
func (p *Principal) HasRoleCode(code string) bool {
	for _, r := range p.Roles {
		if r.Code == code {
			return true
		}
	}
	return false
}

type principalContextKey struct{}
type tokenContextKey struct{}

// ContextWithPrincipal attaches an authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext extracts the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || p == nil || p.User == nil {
		return nil, false
	}
	return p, true
}

// ContextWithToken stores the raw bearer token inside the context so logout
// can deactivate exactly the presented session.
func ContextWithToken(ctx context.Context, raw string) context.Context {
	if raw == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, raw)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

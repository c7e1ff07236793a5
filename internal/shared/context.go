package shared

import "context"

// Identity carries the authenticated caller attached by the auth middleware.
// Services receive tenant scope through it explicitly, never via globals.
type Identity struct {
	UserID    int64
	CompanyID int64
	Role      string
}

// IsAdmin reports whether the caller holds the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == "admin"
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context, nil when absent.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}

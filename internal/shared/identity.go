package shared

import "context"

// Identity is the acting console user. There is no login flow: the
// middleware injects a fixed administrator, and a future authentication
// layer only has to replace that injection.
type Identity struct {
	Name string
	Role string
}

// RoleAdmin is the only role the console currently knows.
const RoleAdmin = "admin"

type identityContextKey struct{}

// ContextWithIdentity stores the acting identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the acting identity. The zero Identity is
// returned when the middleware did not run.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityContextKey{}).(Identity)
	return id
}

package auth

import "context"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the engine's view of the caller: a capability flag,
// never re-derived downstream.
type Identity struct {
	UserID  int64
	IsAdmin bool
}

func (id Identity) Role() string {
	if id.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the caller identity set by JWTMiddleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

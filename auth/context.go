package auth

import (
	"context"

	"github.com/samber/lo"
)

const RoleAdmin = "admin"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Roles  []string
}

func (i Identity) HasRole(role string) bool {
	return lo.Contains(i.Roles, role)
}

type contextKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}

package auth

import (
	"context"

	"landlords/internal/domain"
)

// Identity is the authenticated caller of a single request.
type Identity struct {
	UserID uint
	Email  string
	Role   string
}

func (i Identity) IsAdmin() bool   { return i.Role == domain.RoleAdmin }
func (i Identity) IsOwner() bool   { return i.Role == domain.RoleOwner }
func (i Identity) IsStudent() bool { return i.Role == domain.RoleStudent }

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != 0
}

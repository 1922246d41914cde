package auth

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// Identity is the authenticated caller as resolved from a bearer token.
type Identity struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   model.Role
}

// IdentityFromUser builds the identity of a loaded account.
func IdentityFromUser(u *model.User) Identity {
	return Identity{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}
}

// HasRole reports whether the caller holds exactly role.
func (i Identity) HasRole(role model.Role) bool {
	return i.Role == role
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

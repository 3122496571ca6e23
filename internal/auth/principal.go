package auth

import (
	"context"
	"slices"
)

// Role names as they appear in tokens.
const (
	RoleUser      = "User"
	RoleAdmin     = "Admin"
	RoleModerator = "Moderator"
	RoleVerified  = "Verified"
)

// Principal is whoever is acting: an end user identified by a verified
// access token, or another service on the internal API.
type Principal struct {
	UserID   string
	Roles    []string
	Internal bool
}

func PrincipalFromClaims(c *Claims) *Principal {
	return &Principal{UserID: c.UserID, Roles: c.Roles}
}

// InternalPrincipal is used by calls authenticated with the shared
// internal secret.
func InternalPrincipal() *Principal {
	return &Principal{Internal: true}
}

func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

package auth

import (
	"fmt"

	"github.com/dmitrijs2005/reviewhub/internal/common"
)

// The Require* checks run first in every service operation that acts on
// behalf of someone. Internal principals pass every check.

func RequireAuthenticated(p *Principal) error {
	if p == nil || (!p.Internal && p.UserID == "") {
		return common.ErrUnauthorized
	}
	return nil
}

// RequireAnyRole passes when p holds at least one of roles.
func RequireAnyRole(p *Principal, roles ...string) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.Internal {
		return nil
	}
	for _, r := range roles {
		if p.HasRole(r) {
			return nil
		}
	}
	return fmt.Errorf("%w: requires one of %v", common.ErrForbidden, roles)
}

// RequireSelf passes when p acts on its own account.
func RequireSelf(p *Principal, userID string) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.Internal || p.UserID == userID {
		return nil
	}
	return fmt.Errorf("%w: not the account owner", common.ErrForbidden)
}

// RequireSelfOrRole passes for the account owner or a holder of any of roles.
func RequireSelfOrRole(p *Principal, userID string, roles ...string) error {
	if err := RequireSelf(p, userID); err == nil {
		return nil
	}
	return RequireAnyRole(p, roles...)
}

// RequireNotSelf rejects p acting on its own account.
func RequireNotSelf(p *Principal, userID string) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.Internal && p.UserID == userID {
		return fmt.Errorf("%w: cannot act on own account", common.ErrForbidden)
	}
	return nil
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/repomanager"
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
)

type RoleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRoleService(db *sql.DB, m repomanager.RepositoryManager) *RoleService {
	return &RoleService{db: db, repomanager: m}
}

// SetRoles makes the role set of userID equal to roleIDs. Only an admin may
// call it and never for their own account. Holding the Verified role and
// the email-verified flag always go together.
func (s *RoleService) SetRoles(ctx context.Context, actor *auth.Principal, userID string, roleIDs []string) error {
	if err := auth.RequireAnyRole(actor, auth.RoleAdmin); err != nil {
		return err
	}
	if err := auth.RequireNotSelf(actor, userID); err != nil {
		return err
	}

	desired := dedupe(roleIDs)

	all, err := s.repomanager.Roles(s.db).GetAll(ctx)
	if err != nil {
		return fmt.Errorf("set roles: %w", err)
	}
	known := make(map[string]struct{}, len(all))
	for _, r := range all {
		known[r.ID] = struct{}{}
	}
	var unknown []string
	for _, id := range desired {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return &common.ValidationError{Field: "role_ids", Values: unknown, Reason: "unknown role ids"}
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		userRoles := s.repomanager.UserRoles(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		current, err := userRoles.ListRoleIDs(ctx, userID)
		if err != nil {
			return err
		}

		toAdd := difference(desired, current)
		toRemove := difference(current, desired)

		if len(current) > 0 && len(toRemove) > 0 {
			if err := userRoles.Remove(ctx, userID, toRemove); err != nil {
				return err
			}
		}
		if len(toAdd) > 0 {
			if err := userRoles.Add(ctx, userID, toAdd); err != nil {
				return err
			}
		}

		verified := slices.Contains(desired, models.RoleVerifiedID)
		if user.EmailVerified != verified {
			user.EmailVerified = verified
			return users.Update(ctx, user)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set roles: %w", err)
	}
	return nil
}

// AllRoles lists every role. Admins and moderators only.
func (s *RoleService) AllRoles(ctx context.Context, actor *auth.Principal) ([]models.Role, error) {
	if err := auth.RequireAnyRole(actor, auth.RoleAdmin, auth.RoleModerator); err != nil {
		return nil, err
	}
	roles, err := s.repomanager.Roles(s.db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("all roles: %w", err)
	}
	return roles, nil
}

func (s *RoleService) UserRoles(ctx context.Context, userID string) ([]models.Role, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user roles: %w", err)
	}
	roles, err := s.repomanager.UserRoles(s.db).ListRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user roles: %w", err)
	}
	return roles, nil
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// difference returns the ids of a that are not in b, in the order of a.
func difference(a, b []string) []string {
	var out []string
	for _, id := range a {
		if !slices.Contains(b, id) {
			out = append(out, id)
		}
	}
	return out
}

// Package userroles stores role memberships of users.
package userroles

import (
	"context"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
)

type Repository interface {
	ListRoleIDs(ctx context.Context, userID string) ([]string, error)
	ListRoles(ctx context.Context, userID string) ([]models.Role, error)
	// Add grants roleIDs in one statement; memberships that already exist are kept.
	Add(ctx context.Context, userID string, roleIDs []string) error
	// Remove revokes roleIDs in one statement.
	Remove(ctx context.Context, userID string, roleIDs []string) error
}

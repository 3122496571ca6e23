// Package users is the credential store of the account service.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	Revoke(ctx context.Context, id string, expiresAt time.Time) (int64, error)
}

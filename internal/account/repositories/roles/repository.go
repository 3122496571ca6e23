// Package roles is the read-only role store.
package roles

import (
	"context"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
)

type Repository interface {
	GetAll(ctx context.Context) ([]models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
}

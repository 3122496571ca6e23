package categories

import (
	"context"

	"github.com/dmitrijs2005/reviewhub/internal/category/models"
)

// Repository loads categories together with their subcategories.
type Repository interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*models.Category, error)
	// Search returns categories whose name contains fragment, ignoring case.
	Search(ctx context.Context, fragment string) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

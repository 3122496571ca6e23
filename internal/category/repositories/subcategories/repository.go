package subcategories

import (
	"context"

	"github.com/dmitrijs2005/reviewhub/internal/category/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Subcategory) error
	Delete(ctx context.Context, id string) error
}

package categories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/reviewhub/internal/category/models"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectWithSubcategories = `SELECT c.id, c.name, c.reviews_count, s.id, s.name, s.reviews_count
FROM categories c
LEFT JOIN subcategories s ON s.category_id = c.id`

func (r *PostgresRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	return r.list(ctx, selectWithSubcategories+` ORDER BY c.name, s.name`)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return r.one(ctx, selectWithSubcategories+` WHERE c.id = $1 ORDER BY s.name`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return r.one(ctx, selectWithSubcategories+` WHERE lower(c.name) = lower($1) ORDER BY s.name`, name)
}

func (r *PostgresRepository) Search(ctx context.Context, fragment string) ([]models.Category, error) {
	return r.list(ctx, selectWithSubcategories+` WHERE strpos(lower(c.name), lower($1)) > 0 ORDER BY c.name, s.name`, fragment)
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Category) error {
	query := `INSERT INTO categories (id, name, reviews_count) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.ReviewsCount); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id, name string) error {
	query := `UPDATE categories SET name = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM categories WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*models.Category, error) {
	list, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.ErrNotFound
	}
	return &list[0], nil
}

// list folds the joined rows into categories, keeping the row order.
func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Category{}
	index := map[string]int{}
	for rows.Next() {
		var (
			c         models.Category
			subID     sql.NullString
			subName   sql.NullString
			subReview sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.ReviewsCount, &subID, &subName, &subReview); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		i, ok := index[c.ID]
		if !ok {
			c.Subcategories = []models.Subcategory{}
			result = append(result, c)
			i = len(result) - 1
			index[c.ID] = i
		}
		if subID.Valid {
			result[i].Subcategories = append(result[i].Subcategories, models.Subcategory{
				ID:           subID.String,
				CategoryID:   c.ID,
				Name:         subName.String,
				ReviewsCount: int(subReview.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

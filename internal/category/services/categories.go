// Package services implements the catalog operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/category/events"
	"github.com/dmitrijs2005/reviewhub/internal/category/models"
	"github.com/dmitrijs2005/reviewhub/internal/category/repositories/repomanager"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
	"github.com/dmitrijs2005/reviewhub/internal/logging"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
	"github.com/google/uuid"
)

// CategoryService reads the catalog for anyone and changes it for admins.
type CategoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	events      events.Publisher
	clock       timex.Clock
	log         logging.Logger
}

func NewCategoryService(db *sql.DB, m repomanager.RepositoryManager, pub events.Publisher,
	clock timex.Clock, log logging.Logger) *CategoryService {
	return &CategoryService{
		db:          db,
		repomanager: m,
		events:      pub,
		clock:       clock,
		log:         log.With("module", "categories"),
	}
}

func (s *CategoryService) All(ctx context.Context) ([]models.Category, error) {
	return s.repomanager.Categories(s.db).GetAll(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	return s.repomanager.Categories(s.db).GetByID(ctx, id)
}

// FindByName ignores case.
func (s *CategoryService) FindByName(ctx context.Context, name string) (*models.Category, error) {
	return s.repomanager.Categories(s.db).GetByName(ctx, strings.TrimSpace(name))
}

// Search lists categories whose name contains fragment, ignoring case.
func (s *CategoryService) Search(ctx context.Context, fragment string) ([]models.Category, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, &common.ValidationError{Field: "q", Reason: "is required"}
	}
	return s.repomanager.Categories(s.db).Search(ctx, fragment)
}

func (s *CategoryService) Add(ctx context.Context, actor *auth.Principal, name string) (*models.Category, error) {
	if err := auth.RequireAnyRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	c := &models.Category{ID: uuid.NewString(), Name: name, Subcategories: []models.Subcategory{}}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		categories := s.repomanager.Categories(tx)

		if _, err := categories.GetByName(ctx, name); err == nil {
			return fmt.Errorf("%w: category %q exists", common.ErrConflict, name)
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}
		return categories.Create(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("add category: %w", err)
	}

	s.log.Info(ctx, "category created", "user_id", actor.UserID, "category_id", c.ID, "name", c.Name)
	return c, nil
}

// Rename fails with ErrConflict when another category already uses name.
func (s *CategoryService) Rename(ctx context.Context, actor *auth.Principal, id, name string) error {
	if err := auth.RequireAnyRole(actor, auth.RoleAdmin); err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	var oldName string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		categories := s.repomanager.Categories(tx)

		c, err := categories.GetByID(ctx, id)
		if err != nil {
			return err
		}
		oldName = c.Name

		owner, err := categories.GetByName(ctx, name)
		switch {
		case err == nil && owner.ID != id:
			return fmt.Errorf("%w: category %q exists", common.ErrConflict, name)
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return err
		}
		return categories.Rename(ctx, id, name)
	})
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}

	s.log.Info(ctx, "category renamed", "user_id", actor.UserID, "category_id", id, "old_name", oldName, "new_name", name)
	return nil
}

// Remove deletes the category and its subcategories and announces it. A
// failed announcement undoes the delete.
func (s *CategoryService) Remove(ctx context.Context, actor *auth.Principal, id string) error {
	if err := auth.RequireAnyRole(actor, auth.RoleAdmin); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		categories := s.repomanager.Categories(tx)

		c, err := categories.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := categories.Delete(ctx, id); err != nil {
			return err
		}
		return s.events.CategoryRemoved(ctx, events.CategoryRemoved{
			CategoryID: c.ID,
			Name:       c.Name,
			RemovedBy:  actor.UserID,
			RemovedAt:  s.clock.Now(),
		})
	})
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Error(ctx, "category removal failed", "user_id", actor.UserID, "category_id", id, "error", err)
		}
		return fmt.Errorf("remove category: %w", err)
	}

	s.log.Info(ctx, "category removed", "user_id", actor.UserID, "category_id", id)
	return nil
}

// AddSubcategory fails with ErrConflict when the category already has a
// subcategory of that name, ignoring case.
func (s *CategoryService) AddSubcategory(ctx context.Context, actor *auth.Principal, categoryID, name string) (*models.Subcategory, error) {
	if err := auth.RequireAnyRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	sub := &models.Subcategory{ID: uuid.NewString(), CategoryID: categoryID, Name: name}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.repomanager.Categories(tx).GetByID(ctx, categoryID)
		if err != nil {
			return err
		}
		for _, existing := range c.Subcategories {
			if strings.EqualFold(existing.Name, name) {
				return fmt.Errorf("%w: subcategory %q exists", common.ErrConflict, name)
			}
		}
		return s.repomanager.Subcategories(tx).Create(ctx, sub)
	})
	if err != nil {
		return nil, fmt.Errorf("add subcategory: %w", err)
	}

	s.log.Info(ctx, "subcategory created", "user_id", actor.UserID, "category_id", categoryID, "subcategory_id", sub.ID)
	return sub, nil
}

func (s *CategoryService) RemoveSubcategory(ctx context.Context, actor *auth.Principal, id string) error {
	if err := auth.RequireAnyRole(actor, auth.RoleAdmin); err != nil {
		return err
	}
	if err := s.repomanager.Subcategories(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("remove subcategory: %w", err)
	}

	s.log.Info(ctx, "subcategory removed", "user_id", actor.UserID, "subcategory_id", id)
	return nil
}

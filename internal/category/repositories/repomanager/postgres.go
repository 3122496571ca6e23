// Package repomanager wires the PostgreSQL catalog repositories and the
// embedded schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/reviewhub/internal/category/migrations"
	"github.com/dmitrijs2005/reviewhub/internal/category/repositories/categories"
	"github.com/dmitrijs2005/reviewhub/internal/category/repositories/subcategories"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
)

type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Categories(db dbx.DBTX) categories.Repository {
	return categories.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Subcategories(db dbx.DBTX) subcategories.Repository {
	return subcategories.NewPostgresRepository(db)
}

var migrate = dbx.Migrate

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, migrations.Migrations, "pgx")
}

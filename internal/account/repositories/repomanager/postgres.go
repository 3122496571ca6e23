// Package repomanager wires the PostgreSQL account repositories and
// the embedded schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/reviewhub/internal/account/migrations"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/emailtokens"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/roles"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/userroles"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/users"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Roles(db dbx.DBTX) roles.Repository {
	return roles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) UserRoles(db dbx.DBTX) userroles.Repository {
	return userroles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) EmailTokens(db dbx.DBTX) emailtokens.Repository {
	return emailtokens.NewPostgresRepository(db)
}

// migrate is a seam for testing.
var migrate = dbx.Migrate

// RunMigrations applies the embedded account schema.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, migrations.Migrations, "pgx")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/reviewhub/internal/category/repositories/categories"
	"github.com/dmitrijs2005/reviewhub/internal/category/repositories/subcategories"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
)

// RepositoryManager vends catalog repositories bound to a connection or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Categories(db dbx.DBTX) categories.Repository
	Subcategories(db dbx.DBTX) subcategories.Repository
}

package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/emailtokens"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/roles"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/userroles"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/users"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
)

// RepositoryManager vends account repositories bound to a connection or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	UserRoles(db dbx.DBTX) userroles.Repository
	EmailTokens(db dbx.DBTX) emailtokens.Repository
}

package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/wordrush/internal/dbx"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/games"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/users"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/words"
)

// RepositoryManager vends repositories bound to a DB handle or transaction
// and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Games(db dbx.DBTX) games.Repository
	Words(db dbx.DBTX) words.Repository
}

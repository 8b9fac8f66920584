package repomanager

import (
	"context"
	"database/sql"

	"github.com/loginchat/authserver/internal/dbx"
	"github.com/loginchat/authserver/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}

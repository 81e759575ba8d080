package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/wsdrive/internal/dbx"
	"github.com/dmitrijs2005/wsdrive/internal/server/repositories/trash"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Trash(db dbx.DBTX) trash.Repository
}

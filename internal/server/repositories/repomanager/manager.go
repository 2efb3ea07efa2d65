package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vaultshare/internal/dbx"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/files"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/keys"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/shares"
	"github.com/dmitrijs2005/vaultshare/internal/server/repositories/stepup"
)

// RepositoryManager vends repositories bound to a dbx.DBTX, which may be the
// plain connection or an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Keys(db dbx.DBTX) keys.Repository
	Files(db dbx.DBTX) files.Repository
	Shares(db dbx.DBTX) shares.Repository
	StepUp(db dbx.DBTX) stepup.Repository
}

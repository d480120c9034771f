package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophsync/internal/client/repositories/entries"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/files"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/members"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/vaults"
	"github.com/dmitrijs2005/gophsync/internal/dbx"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Metadata(db dbx.DBTX) metadata.Repository
	Vaults(db dbx.DBTX) vaults.Repository
	Entries(db dbx.DBTX) entries.Repository
	Members(db dbx.DBTX) members.Repository
	Files(db dbx.DBTX) files.Repository
}

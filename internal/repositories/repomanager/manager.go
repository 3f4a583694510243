// Package repomanager builds repositories and applies schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/archiveloader/internal/dbx"
	"github.com/dmitrijs2005/archiveloader/internal/repositories/metadata"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Metadata(db dbx.DBTX) metadata.Repository
}

package metadata

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/archiveloader/internal/archive"
	"github.com/dmitrijs2005/archiveloader/internal/dbx"
)

// StateWriter persists an archive's upload markers in one transaction.
type StateWriter struct {
	db *sql.DB
}

func NewStateWriter(db *sql.DB) *StateWriter {
	return &StateWriter{db: db}
}

func (w *StateWriter) SaveUploadState(ctx context.Context, archiveName string, records []*archive.FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, w.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewPostgresRepository(tx).UpdateUploadState(ctx, archiveName, records)
	})
}

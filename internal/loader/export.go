package loader

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/archiveloader/internal/export"
	"github.com/dmitrijs2005/archiveloader/internal/repositories/metadata"
	"github.com/google/uuid"
)

// RunExport writes the uploaded-file metadata to the open bucket and
// returns the number of exported rows.
func (app *App) RunExport(ctx context.Context) (int, error) {
	ctx, cancel := app.initSignalHandler(ctx)
	defer cancel()

	db, err := openDB(ctx, app.config.DatabaseDSN)
	if err != nil {
		return 0, fmt.Errorf("db init error: %w", err)
	}
	defer app.closeDB(ctx, db)

	store, err := newObjectStore(ctx, app.storageOptions(), app.logger)
	if err != nil {
		return 0, fmt.Errorf("storage init error: %w", err)
	}

	runID := uuid.NewString()
	exp := export.NewExporter(metadata.NewPostgresRepository(db), store, app.config.SampleCode2Letter,
		app.config.Buckets.Open, app.config.Export.OutputKey, app.logger.With("run_id", runID))
	return exp.Run(ctx, runID)
}

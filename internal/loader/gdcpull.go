package loader

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/archiveloader/internal/gdc"
)

// RunGDCPull fetches the configured GDC manifest, resolves it through
// IndexD, downloads the files into a clean local directory and returns the
// resulting file list.
func (app *App) RunGDCPull(ctx context.Context) ([]string, error) {
	ctx, cancel := app.initSignalHandler(ctx)
	defer cancel()

	cfg := app.config.GDC

	filter, err := gdc.BuildManifestFilter(cfg.Filters)
	if err != nil {
		return nil, err
	}

	client := gdc.NewClient(app.http, cfg.APIURL, cfg.IndexdURL, app.logger)
	if err := client.FetchManifest(ctx, filter, cfg.ManifestFile, cfg.MaxFiles); err != nil {
		return nil, err
	}

	entries, err := gdc.ReadManifest(cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	locations, err := client.Resolve(ctx, entries, cfg.IndexdMax)
	if err != nil {
		return nil, err
	}

	store, err := newObjectStore(ctx, app.storageOptions(), app.logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	dir, err := gdc.CleanTarget(cfg.LocalDir)
	if err != nil {
		return nil, err
	}
	if err := gdc.Pull(ctx, store, locations, dir); err != nil {
		return nil, err
	}

	files, err := gdc.BuildFileList(dir)
	if err != nil {
		return nil, err
	}
	app.logger.Info(ctx, "pulled gdc files", "manifest_entries", len(entries), "files", len(files))
	return files, nil
}

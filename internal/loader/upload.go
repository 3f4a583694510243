package loader

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/archiveloader/internal/archive"
	"github.com/dmitrijs2005/archiveloader/internal/config"
	"github.com/dmitrijs2005/archiveloader/internal/fetch"
	"github.com/dmitrijs2005/archiveloader/internal/netx"
	"github.com/dmitrijs2005/archiveloader/internal/repositories/metadata"
	"github.com/dmitrijs2005/archiveloader/internal/sdrf"
)

type archiveLister interface {
	ListArchives(ctx context.Context) ([]archive.ArchiveDescriptor, error)
}

// RunUpload runs one upload batch over every listed archive.
func (app *App) RunUpload(ctx context.Context) (*archive.Report, error) {
	ctx, cancel := app.initSignalHandler(ctx)
	defer cancel()

	cfg := app.config
	app.logger.Info(ctx, "starting upload", "metadata_source", cfg.MetadataSource, "upload_files", cfg.UploadFiles)

	store, err := newObjectStore(ctx, app.storageOptions(), app.logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	var (
		source   archive.MetadataSource
		lister   archiveLister
		state    archive.StateWriter
		excluded = slices.Clone(cfg.ExcludeSamples)
	)

	switch cfg.MetadataSource {
	case config.SourceSDRF:
		ds := sdrf.NewDirSource(cfg.SDRFDir)
		source, lister = ds, ds
	default:
		db, err := openDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		defer app.closeDB(ctx, db)

		rm := newRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			return nil, err
		}
		repo := rm.Metadata(db)
		source, lister = repo, repo
		state = metadata.NewStateWriter(db)

		samples, err := repo.ExcludedSamples(ctx)
		if err != nil {
			return nil, err
		}
		excluded = append(excluded, samples...)
	}

	archives, err := lister.ListArchives(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}

	fetcher := fetch.NewHTTPFetcher(app.http, cfg.WorkDir, cfg.ControlledMarker,
		&netx.BasicAuth{User: cfg.UserInfo.User, Password: cfg.UserInfo.Password}, app.logger)

	driver := archive.NewDriver(settingsFrom(cfg), policyFrom(cfg, excluded), routerFrom(cfg),
		fetcher, source, store, state, app.metrics, app.logger)

	report, err := driver.Run(ctx, archives)
	if report != nil {
		app.pushMetrics(ctx, "upload", report.RunID)
		app.logger.Info(ctx, "upload finished", "run_id", report.RunID,
			"archives", len(report.Archives), "files", len(report.AcceptedFiles()))
	}
	return report, err
}

func settingsFrom(cfg *config.Config) archive.Settings {
	return archive.Settings{
		DownloadArchives: cfg.DownloadArchives,
		UploadOpen:       cfg.UploadOpen,
		UploadControlled: cfg.UploadControlled,
		UploadFiles:      cfg.UploadFiles,
		ControlledMarker: cfg.ControlledMarker,
		Selection:        archive.Selection(cfg.UploadArchives),
	}
}

func policyFrom(cfg *config.Config, excludedSamples []string) archive.ExclusionPolicy {
	return archive.NewExclusionPolicy(excludedSamples, cfg.NonUploadPatterns())
}

func routerFrom(cfg *config.Config) archive.Router {
	return archive.Router{
		OpenBucket:       cfg.Buckets.Open,
		ControlledBucket: cfg.Buckets.Controlled,
		OpenTag:          cfg.OpenAccessTag,
	}
}

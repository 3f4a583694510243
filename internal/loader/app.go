// Package loader wires configuration, storage, metadata sources and the
// archive driver into the runnable commands: the upload batch, the metadata
// export and the GDC pull.
package loader

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/archiveloader/internal/archive"
	"github.com/dmitrijs2005/archiveloader/internal/config"
	"github.com/dmitrijs2005/archiveloader/internal/export"
	"github.com/dmitrijs2005/archiveloader/internal/gdc"
	"github.com/dmitrijs2005/archiveloader/internal/logging"
	"github.com/dmitrijs2005/archiveloader/internal/metrics"
	"github.com/dmitrijs2005/archiveloader/internal/repositories/repomanager"
	"github.com/dmitrijs2005/archiveloader/internal/storage"
)

// objectStore is what the commands need from object storage.
type objectStore interface {
	archive.Uploader
	gdc.Downloader
	export.Sink
}

var (
	newObjectStore = func(ctx context.Context, opts storage.Options, logger logging.Logger) (objectStore, error) {
		return storage.New(ctx, opts, logger)
	}

	openDB = repomanager.OpenPostgres

	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	metrics *metrics.Prom
	http    *http.Client
}

// NewApp builds an App logging JSON to out at the configured level.
func NewApp(cfg *config.Config, out io.Writer) *App {
	return &App{
		config:  cfg,
		logger:  logging.NewJSON(out, cfg.LogLevel),
		metrics: metrics.NewProm("archiveloader"),
		http:    &http.Client{Timeout: cfg.TransferTimeout},
	}
}

// initSignalHandler cancels the returned context on SIGINT, SIGTERM or SIGQUIT.
func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancelFunc := context.WithCancel(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			app.logger.Warn(ctx, "interrupted, stopping")
			cancelFunc()
		case <-ctx.Done():
		}
	}()

	return ctx, cancelFunc
}

func (app *App) storageOptions() storage.Options {
	return storage.Options{
		Region:       app.config.S3Region,
		User:         app.config.S3RootUser,
		Password:     app.config.S3RootPassword,
		BaseEndpoint: app.config.S3BaseEndpoint,
		Timeout:      app.config.TransferTimeout,
	}
}

func (app *App) closeDB(ctx context.Context, db *sql.DB) {
	if err := db.Close(); err != nil {
		app.logger.Error(ctx, "failed to close database", "error", err)
	}
}

const pushTimeout = 10 * time.Second

// pushMetrics runs after the batch, so it ignores cancellation of ctx
// and is bounded by pushTimeout instead.
func (app *App) pushMetrics(ctx context.Context, job, runID string) {
	if app.config.PushGatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	if err := app.metrics.Push(ctx, app.config.PushGatewayURL, job, runID); err != nil {
		app.logger.Warn(ctx, "failed to push metrics", "error", err)
	}
}

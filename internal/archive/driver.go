package archive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/archiveloader/internal/logging"
	"github.com/dmitrijs2005/archiveloader/internal/metrics"
	"github.com/google/uuid"
)

// Fetcher downloads and extracts one archive into a scoped working directory.
type Fetcher interface {
	Fetch(ctx context.Context, desc ArchiveDescriptor) (*WorkDir, error)
}

// MetadataSource supplies the metadata groups describing an archive's files.
type MetadataSource interface {
	ArchiveGroups(ctx context.Context, archiveName string) ([]SourceGroup, error)
}

// Uploader transfers one local file to bucket/key.
type Uploader interface {
	Upload(ctx context.Context, localPath, bucket, key string) error
}

// StateWriter persists the upload markers of decided records.
type StateWriter interface {
	SaveUploadState(ctx context.Context, archiveName string, records []*FileRecord) error
}

// Selection limits which archives are downloaded: data level ("Level_1")
// to center to platforms. "*" matches any center or platform. An empty
// selection allows every archive.
type Selection map[string]map[string][]string

func (s Selection) Allows(desc ArchiveDescriptor, level string) bool {
	if len(s) == 0 {
		return true
	}
	centers, ok := s[level]
	if !ok {
		return false
	}
	for _, center := range []string{desc.Center, "*"} {
		for _, platform := range centers[center] {
			if platform == "*" || platform == desc.Platform {
				return true
			}
		}
	}
	return false
}

// Settings are the batch switches.
type Settings struct {
	DownloadArchives bool
	UploadOpen       bool
	UploadControlled bool
	UploadFiles      bool
	ControlledMarker string
	Selection        Selection
}

// Archive statuses reported per visited archive.
const (
	StatusSkipped  = "skipped"
	StatusEmpty    = "empty"
	StatusUploaded = "uploaded"
)

// Reasons an archive is skipped without being fetched.
const (
	SkipAccessDisabled   = "access_disabled"
	SkipDownloadDisabled = "download_disabled"
	SkipNoLevel          = "no_level"
	SkipNotSelected      = "not_selected"
)

// ArchiveReport summarizes one visited archive.
type ArchiveReport struct {
	Name       string
	Access     AccessClass
	Status     string
	SkipReason string
	// Routed lists accepted files in name order with DatafileNameKey set.
	// DatafileUploaded is true on those that reached storage.
	Routed             []*FileRecord
	Result             *Result
	MetadataDuplicates []string
}

// Report summarizes a batch run.
type Report struct {
	RunID    string
	Archives []ArchiveReport
}

// AcceptedFiles returns the accepted file names across the batch in visit order.
func (r *Report) AcceptedFiles() []string {
	var out []string
	for _, a := range r.Archives {
		for _, rec := range a.Routed {
			out = append(out, rec.FileName)
		}
	}
	return out
}

// Driver runs a batch: archives newest first, one at a time, with a single
// SeenFiles set shared by every archive of the run.
type Driver struct {
	settings Settings
	policy   ExclusionPolicy
	router   Router
	fetcher  Fetcher
	source   MetadataSource
	uploader Uploader
	state    StateWriter
	metrics  metrics.Recorder
	logger   logging.Logger
}

func NewDriver(settings Settings, policy ExclusionPolicy, router Router, fetcher Fetcher,
	source MetadataSource, uploader Uploader, state StateWriter, rec metrics.Recorder, logger logging.Logger) *Driver {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Driver{
		settings: settings,
		policy:   policy,
		router:   router,
		fetcher:  fetcher,
		source:   source,
		uploader: uploader,
		state:    state,
		metrics:  rec,
		logger:   logger,
	}
}

// Run processes archives in descending version order. Any archive-level
// failure, storage transfer failures included, stops the batch.
func (d *Driver) Run(ctx context.Context, archives []ArchiveDescriptor) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	logger := d.logger.With("run_id", report.RunID)

	sorted := slices.Clone(archives)
	slices.SortStableFunc(sorted, func(a, b ArchiveDescriptor) int {
		return b.Version.Compare(a.Version)
	})

	seen := NewSeenFiles()
	processor := NewProcessor(NewDeduplicator(seen, logger), logger)

	logger.Info(ctx, "start upload archives", "archives", len(sorted))
	for _, desc := range sorted {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		access := desc.AccessClass(d.settings.ControlledMarker)
		archiveLogger := logger.With("archive", desc.Name, "access", string(access))
		if !d.accessEnabled(access) {
			report.Archives = append(report.Archives, d.skip(ctx, archiveLogger, desc, access, SkipAccessDisabled))
			continue
		}

		ar, err := d.runArchive(ctx, processor, desc, access, archiveLogger)
		report.Archives = append(report.Archives, ar)
		if err != nil {
			return report, fmt.Errorf("archive %s: %w", desc.Name, err)
		}
	}
	logger.Info(ctx, "finished upload archives", "files", seen.Len())

	return report, nil
}

func (d *Driver) runArchive(ctx context.Context, processor *Processor, desc ArchiveDescriptor, access AccessClass, logger logging.Logger) (ArchiveReport, error) {
	if !d.settings.DownloadArchives {
		return d.skip(ctx, logger, desc, access, SkipDownloadDisabled), nil
	}

	level, err := desc.Level()
	if err != nil {
		logger.Warn(ctx, "archive name has no data level", "error", err)
		return d.skip(ctx, logger, desc, access, SkipNoLevel), nil
	}
	if !d.settings.Selection.Allows(desc, underscored(level)) {
		return d.skip(ctx, logger, desc, access, SkipNotSelected), nil
	}

	ar := ArchiveReport{Name: desc.Name, Access: access, Status: StatusSkipped}

	started := time.Now()
	defer func() {
		d.metrics.ObserveArchiveDuration(string(access), time.Since(started).Seconds())
	}()

	logger.Info(ctx, "uploading archive")

	wd, err := d.fetcher.Fetch(ctx, desc)
	if err != nil {
		return ar, fmt.Errorf("fetch: %w", err)
	}
	defer func() {
		if err := wd.Release(); err != nil {
			logger.Error(ctx, "failed to remove archive dir", "dir", wd.Root, "error", err)
		}
	}()

	groups, err := d.source.ArchiveGroups(ctx, desc.Name)
	if err != nil {
		return ar, fmt.Errorf("load metadata: %w", err)
	}
	index := BuildIndex(ctx, groups, logger)
	ar.MetadataDuplicates = index.Duplicates

	res, err := processor.Process(ctx, wd.Path, index, d.policy, level)
	if err != nil {
		return ar, fmt.Errorf("process files: %w", err)
	}
	ar.Result = res
	for _, o := range res.Outcomes {
		d.metrics.IncFiles(string(o.Kind))
	}

	if len(res.Accepted) == 0 {
		logger.Warn(ctx, "did not find files to load")
		ar.Status = StatusEmpty
		d.metrics.IncArchives(string(access), StatusEmpty)
		return ar, d.saveState(ctx, desc, index)
	}

	uploadErr := d.upload(ctx, wd.Path, res, &ar)
	saveErr := d.saveState(ctx, desc, index)
	if err := errors.Join(uploadErr, saveErr); err != nil {
		return ar, err
	}

	ar.Status = StatusUploaded
	d.metrics.IncArchives(string(access), StatusUploaded)
	logger.Info(ctx, "finished uploading archive", "files", len(ar.Routed))
	return ar, nil
}

func (d *Driver) accessEnabled(access AccessClass) bool {
	if access == AccessControlled {
		return d.settings.UploadControlled
	}
	return d.settings.UploadOpen
}

func (d *Driver) skip(ctx context.Context, logger logging.Logger, desc ArchiveDescriptor, access AccessClass, reason string) ArchiveReport {
	logger.Info(ctx, "skipping archive", "reason", reason)
	d.metrics.IncArchives(string(access), StatusSkipped)
	return ArchiveReport{Name: desc.Name, Access: access, Status: StatusSkipped, SkipReason: reason}
}

func (d *Driver) upload(ctx context.Context, dir string, res *Result, ar *ArchiveReport) error {
	names := res.AcceptedNames()
	route := d.router.Route(res.Accepted[names[0]])

	for _, name := range names {
		rec := res.Accepted[name]
		rec.DatafileNameKey = route.Key(rec)
		ar.Routed = append(ar.Routed, rec)

		if !d.settings.UploadFiles {
			continue
		}
		if err := d.uploader.Upload(ctx, filepath.Join(dir, name), route.Bucket, rec.DatafileNameKey); err != nil {
			return fmt.Errorf("upload %s: %w", name, err)
		}
		rec.DatafileUploaded = true
		d.metrics.IncUploaded(route.Bucket)
	}
	return nil
}

func (d *Driver) saveState(ctx context.Context, desc ArchiveDescriptor, index *Index) error {
	if d.state == nil {
		return nil
	}
	if err := d.state.SaveUploadState(ctx, desc.Name, index.Records()); err != nil {
		return fmt.Errorf("save upload state: %w", err)
	}
	return nil
}

func underscored(level string) string {
	return strings.ReplaceAll(level, " ", "_")
}

package archive

import (
	"context"

	"github.com/dmitrijs2005/archiveloader/internal/logging"
)

// Deduplicator admits an eligible file only the first time its name is seen
// in the batch. Archives are visited newest first, so the newest version wins.
type Deduplicator struct {
	seen   *SeenFiles
	logger logging.Logger
}

func NewDeduplicator(seen *SeenFiles, logger logging.Logger) *Deduplicator {
	return &Deduplicator{seen: seen, logger: logger}
}

// Admit claims name for upload. A name already claimed by an earlier
// archive is rejected with a warning.
func (d *Deduplicator) Admit(ctx context.Context, name string) bool {
	if d.seen.Claim(name) {
		return true
	}
	d.logger.Warn(ctx, "found repeated file", "file", name)
	return false
}

package archive

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/dmitrijs2005/archiveloader/internal/logging"
)

// RawRecord is one metadata row keyed by metadata_data column name.
type RawRecord map[string]string

// SourceGroup is one metadata source table for an archive, typically the
// rows of a single SDRF file. Groups are consulted in order.
type SourceGroup struct {
	Name    string
	Records []RawRecord
}

// Resolution is the outcome of resolving one file name: a validated record
// or the reason it could not be built.
type Resolution struct {
	Record *FileRecord
	Err    error
}

// Index maps file names to their resolved metadata for one archive.
type Index struct {
	entries map[string]Resolution
	order   []string

	// Duplicates lists names that appeared again in a later group and were ignored.
	Duplicates []string
	// Unnamed counts raw rows without a DatafileName.
	Unnamed int
}

// BuildIndex merges groups first-seen-wins. A repeated name is logged as a
// processing error and the later row is ignored, not merged.
func BuildIndex(ctx context.Context, groups []SourceGroup, logger logging.Logger) *Index {
	ix := &Index{entries: make(map[string]Resolution)}

	for _, g := range groups {
		for _, raw := range g.Records {
			name := raw[common.ColDatafileName]
			if name == "" {
				ix.Unnamed++
				logger.Error(ctx, "metadata row without file name", "group", g.Name)
				continue
			}
			if _, ok := ix.entries[name]; ok {
				ix.Duplicates = append(ix.Duplicates, name)
				logger.Error(ctx, "duplicate metadata for file, keeping first", "file", name, "group", g.Name)
				continue
			}

			rec, err := NewFileRecord(raw)
			if err != nil {
				err = fmt.Errorf("resolve %s from %s: %w", name, g.Name, err)
			}
			ix.entries[name] = Resolution{Record: rec, Err: err}
			ix.order = append(ix.order, name)
		}
	}

	return ix
}

func (ix *Index) Lookup(name string) (Resolution, bool) {
	r, ok := ix.entries[name]
	return r, ok
}

func (ix *Index) Len() int {
	return len(ix.entries)
}

// Records returns the successfully resolved records in first-seen order.
func (ix *Index) Records() []*FileRecord {
	out := make([]*FileRecord, 0, len(ix.order))
	for _, name := range ix.order {
		if r := ix.entries[name]; r.Err == nil {
			out = append(out, r.Record)
		}
	}
	return out
}

// Orphans returns the physical names with no metadata in any group, sorted.
func (ix *Index) Orphans(physical []string) []string {
	var out []string
	for _, name := range physical {
		if _, ok := ix.entries[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

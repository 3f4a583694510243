// Package sdrf reads archive metadata from tab-delimited files on disk, as
// an alternative to the metadata database.
//
// A directory holds one archives.tsv listing the archives and, per archive,
// one or more <archive>.sdrf.txt or <archive>.<part>.sdrf.txt files whose
// headers are metadata column names. Each SDRF file becomes one metadata group.
package sdrf

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/dmitrijs2005/archiveloader/internal/archive"
	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/jszwec/csvutil"
)

const (
	archivesFile = "archives.tsv"
	sdrfSuffix   = ".sdrf.txt"
)

type archiveRow struct {
	Name     string `csv:"archive_name"`
	Version  string `csv:"archive_version"`
	URL      string `csv:"archive_url"`
	Center   string `csv:"center_name"`
	Platform string `csv:"platform"`
}

type fileRow struct {
	DatafileName       string `csv:"DatafileName"`
	DataLevel          string `csv:"DataLevel"`
	AliquotBarcode     string `csv:"AliquotBarcode"`
	SampleBarcode      string `csv:"SampleBarcode"`
	IncludeForAnalysis string `csv:"IncludeForAnalysis"`
	AnnotationCategory string `csv:"AnnotationCategory"`
	SecurityProtocol   string `csv:"SecurityProtocol"`
	Project            string `csv:"Project"`
	Study              string `csv:"Study"`
	Platform           string `csv:"Platform"`
	Pipeline           string `csv:"Pipeline"`
	SDRFFileName       string `csv:"SDRFFileName"`
}

// raw drops blank cells so they read as absent columns.
func (r fileRow) raw() archive.RawRecord {
	rec := archive.RawRecord{}
	for k, v := range map[string]string{
		common.ColDatafileName:       r.DatafileName,
		common.ColDataLevel:          r.DataLevel,
		common.ColAliquotBarcode:     r.AliquotBarcode,
		common.ColSampleBarcode:      r.SampleBarcode,
		common.ColIncludeForAnalysis: r.IncludeForAnalysis,
		common.ColAnnotationCategory: r.AnnotationCategory,
		common.ColSecurityProtocol:   r.SecurityProtocol,
		common.ColProject:            r.Project,
		common.ColStudy:              r.Study,
		common.ColPlatform:           r.Platform,
		common.ColPipeline:           r.Pipeline,
		common.ColSDRFFileName:       r.SDRFFileName,
	} {
		if v != "" {
			rec[k] = v
		}
	}
	return rec
}

// DirSource serves archives and metadata groups from a directory.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func decodeTSV[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseTSV[T](f)
}

func parseTSV[T any](r io.Reader) ([]T, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create TSV decoder: %w", err)
	}

	var out []T
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode TSV data: %w", err)
	}
	return out, nil
}

// ListArchives reads archives.tsv.
func (s *DirSource) ListArchives(ctx context.Context) ([]archive.ArchiveDescriptor, error) {
	rows, err := decodeTSV[archiveRow](filepath.Join(s.dir, archivesFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", archivesFile, err)
	}

	result := make([]archive.ArchiveDescriptor, 0, len(rows))
	for _, r := range rows {
		v, err := archive.ParseVersion(r.Version)
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", r.Name, err)
		}
		result = append(result, archive.ArchiveDescriptor{
			Name: r.Name, Version: v, URL: r.URL, Center: r.Center, Platform: r.Platform,
		})
	}
	return result, nil
}

// ArchiveGroups returns one group per SDRF file of the archive, in file
// name order. An archive's files are "<archive>.sdrf.txt" and
// "<archive>.<part>.sdrf.txt". Rows without an SDRFFileName inherit the
// file's name.
func (s *DirSource) ArchiveGroups(ctx context.Context, archiveName string) ([]archive.SourceGroup, error) {
	paths, err := s.sdrfFiles(archiveName)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no sdrf file for %s", common.ErrorNotFound, archiveName)
	}

	groups := make([]archive.SourceGroup, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := decodeTSV[fileRow](p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(p), err)
		}

		name := filepath.Base(p)
		g := archive.SourceGroup{Name: name, Records: make([]archive.RawRecord, 0, len(rows))}
		for _, r := range rows {
			if r.SDRFFileName == "" {
				r.SDRFFileName = name
			}
			g.Records = append(g.Records, r.raw())
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *DirSource) sdrfFiles(archiveName string) ([]string, error) {
	base := filepath.Join(s.dir, globEscape(archiveName))
	var paths []string
	for _, pattern := range []string{base + sdrfSuffix, base + ".*" + sdrfSuffix} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

func globEscape(s string) string {
	var out []rune
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

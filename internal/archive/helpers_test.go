package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/dmitrijs2005/archiveloader/internal/logging"
	"github.com/stretchr/testify/require"
)

func raw(name string, overrides ...string) RawRecord {
	r := RawRecord{
		"DatafileName":       name,
		"DataLevel":          "Level 2",
		"AliquotBarcode":     "TCGA-AB-1234-01A-11D-A000-01",
		"SampleBarcode":      "TCGA-AB-1234-01A",
		"IncludeForAnalysis": "yes",
		"SecurityProtocol":   "DBGap Open Access",
		"Project":            "TCGA",
		"Study":              "TestStudy",
		"Platform":           "platformX",
		"Pipeline":           "pipelineY",
		"SDRFFileName":       "test.sdrf.txt",
	}
	for i := 0; i+1 < len(overrides); i += 2 {
		r[overrides[i]] = overrides[i+1]
	}
	return r
}

func record(t *testing.T, name string, overrides ...string) *FileRecord {
	t.Helper()
	rec, err := NewFileRecord(raw(name, overrides...))
	require.NoError(t, err)
	return rec
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644))
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func quietLogger() logging.Logger {
	return logging.Discard()
}

// fakeFetcher extracts archives by writing the listed file names into a
// fresh directory under root.
type fakeFetcher struct {
	root    string
	files   map[string][]string
	err     error
	fetched []string
	dirs    []*WorkDir
}

func (f *fakeFetcher) Fetch(ctx context.Context, desc ArchiveDescriptor) (*WorkDir, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.fetched = append(f.fetched, desc.Name)
	root, err := os.MkdirTemp(f.root, "archive-")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(root, desc.Name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	for _, n := range f.files[desc.Name] {
		if err := os.WriteFile(filepath.Join(path, n), []byte(desc.Name+"/"+n), 0o644); err != nil {
			return nil, err
		}
	}
	wd := NewWorkDir(root, path)
	f.dirs = append(f.dirs, wd)
	return wd, nil
}

type fakeSource struct {
	groups map[string][]SourceGroup
	err    error
}

func (s *fakeSource) ArchiveGroups(ctx context.Context, archiveName string) ([]SourceGroup, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.groups[archiveName], nil
}

type uploadCall struct {
	LocalPath string
	Bucket    string
	Key       string
	Body      string
}

type fakeUploader struct {
	mu     sync.Mutex
	calls  []uploadCall
	failOn string
}

var errTransfer = errors.New("transfer failed")

func (u *fakeUploader) Upload(ctx context.Context, localPath, bucket, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failOn != "" && filepath.Base(localPath) == u.failOn {
		return errTransfer
	}
	b, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	u.calls = append(u.calls, uploadCall{LocalPath: localPath, Bucket: bucket, Key: key, Body: string(b)})
	return nil
}

type fakeState struct {
	saved    [][]*FileRecord
	archives []string
	err      error
}

func (s *fakeState) SaveUploadState(ctx context.Context, archiveName string, records []*FileRecord) error {
	s.archives = append(s.archives, archiveName)
	s.saved = append(s.saved, records)
	return s.err
}

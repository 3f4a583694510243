package gdc

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/dmitrijs2005/archiveloader/internal/filex"
)

// Downloader fetches one object to a local path.
type Downloader interface {
	Download(ctx context.Context, bucket, key, localPath string) error
}

// CleanTarget empties localDir, creating it when missing.
func CleanTarget(localDir string) (string, error) {
	if err := os.RemoveAll(localDir); err != nil {
		return "", fmt.Errorf("clean %s: %w", localDir, err)
	}
	return filex.EnsureDir(localDir)
}

// Pull downloads every location below localDir, keeping the object path.
func Pull(ctx context.Context, d Downloader, locations []Location, localDir string) error {
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst, err := filex.SafeJoin(localDir, loc.Key)
		if err != nil {
			return err
		}
		if err := d.Download(ctx, loc.Bucket, loc.Key, dst); err != nil {
			return fmt.Errorf("pull %s: %w", loc.ID, err)
		}
	}
	return nil
}

const annotationsFile = "annotations.txt"

// BuildFileList walks localDir and returns the downloaded data files,
// sorted. Files directly inside a directory whose name ends in "logs" and
// annotations.txt files are left out; a leftover .parcel file means an
// incomplete download and fails the walk.
func BuildFileList(localDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(filepath.Dir(path), "logs") || d.Name() == annotationsFile {
			return nil
		}
		if strings.HasSuffix(d.Name(), "parcel") {
			return fmt.Errorf("%w: %s", common.ErrParcelFile, path)
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

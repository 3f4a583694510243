// Package fetch downloads archive tarballs and unpacks them into scoped
// working directories.
package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/archiveloader/internal/archive"
	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/dmitrijs2005/archiveloader/internal/filex"
	"github.com/dmitrijs2005/archiveloader/internal/logging"
	"github.com/dmitrijs2005/archiveloader/internal/netx"
)

// HTTPFetcher implements archive.Fetcher over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
	root   string
	marker string
	auth   *netx.BasicAuth
	logger logging.Logger
}

// NewHTTPFetcher returns a fetcher extracting under root. Credentials are
// sent only for archives whose URL carries the controlled marker.
func NewHTTPFetcher(client *http.Client, root, marker string, auth *netx.BasicAuth, logger logging.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, root: root, marker: marker, auth: auth, logger: logger}
}

// Fetch downloads desc.URL and extracts it into a fresh directory. On any
// failure the partial directory is removed.
func (f *HTTPFetcher) Fetch(ctx context.Context, desc archive.ArchiveDescriptor) (_ *archive.WorkDir, err error) {
	root, err := filex.EnsureDir(f.root)
	if err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(root, "archive-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(dir)
		}
	}()

	var auth *netx.BasicAuth
	if desc.AccessClass(f.marker) == archive.AccessControlled {
		auth = f.auth
	}

	f.logger.Info(ctx, "downloading archive", "archive", desc.Name, "url", desc.URL)

	resp, err := netx.Get(ctx, f.client, desc.URL, auth)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", desc.Name, err)
	}
	defer resp.Body.Close()

	n, err := extract(resp.Body, dir)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", desc.Name, err)
	}

	path, err := dataDir(dir)
	if err != nil {
		return nil, err
	}

	f.logger.Debug(ctx, "extracted archive", "archive", desc.Name, "files", n, "dir", path)
	return archive.NewWorkDir(dir, path), nil
}

// extract unpacks a gzip-compressed tar stream into dir and returns the
// number of regular files written. Links and device entries are rejected.
func extract(r io.Reader, dir string) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	files := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("tar: %w", err)
		}

		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		target, err := filex.SafeJoin(dir, hdr.Name)
		if err != nil {
			return files, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return files, err
			}
			files++
		default:
			return files, fmt.Errorf("%w: %q has type %q", common.ErrUnsupportedEntry, hdr.Name, hdr.Typeflag)
		}
	}
}

func writeFile(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// dataDir returns the single top-level directory of an extracted archive,
// or dir itself when the tarball was flat.
func dataDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read work dir: %w", err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

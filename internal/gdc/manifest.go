package gdc

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/dmitrijs2005/archiveloader/internal/logging"
	"github.com/dmitrijs2005/archiveloader/internal/netx"
	"github.com/jszwec/csvutil"
)

// DefaultMaxFiles is the manifest size requested when no limit is set.
const DefaultMaxFiles = 100000

// ManifestEntry is one line of a GDC manifest.
type ManifestEntry struct {
	ID       string `csv:"id"`
	FileName string `csv:"filename"`
	MD5      string `csv:"md5"`
	Size     int64  `csv:"size"`
}

// Client talks to the GDC files endpoint and to IndexD.
type Client struct {
	http      *http.Client
	apiURL    string
	indexdURL string
	logger    logging.Logger
}

func NewClient(client *http.Client, apiURL, indexdURL string, logger logging.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{http: client, apiURL: apiURL, indexdURL: indexdURL, logger: logger}
}

// FetchManifest downloads the manifest selected by filter into path. The
// filter goes in the query string of a GET; GDC ignores it in a POST body
// when a manifest is requested.
func (c *Client) FetchManifest(ctx context.Context, filter, path string, maxFiles int) error {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	q := url.Values{}
	q.Set("filters", filter)
	q.Set("size", strconv.Itoa(maxFiles))
	q.Set("return_type", "manifest")
	requestURL := c.apiURL + "?" + q.Encode()

	resp, err := netx.Get(ctx, c.http, requestURL, nil)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	c.logger.Info(ctx, "wrote manifest file", "path", path)
	return nil
}

// ParseManifest reads a tab-delimited manifest with an id/filename/md5/size
// header. Extra columns are ignored.
func ParseManifest(r io.Reader) ([]ManifestEntry, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest decoder: %w", err)
	}

	var entries []ManifestEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return entries, nil
}

// ReadManifest parses the manifest file at path.
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseManifest(f)
}

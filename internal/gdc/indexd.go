package gdc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/dmitrijs2005/archiveloader/internal/netx"
)

type indexdRecord struct {
	DID    string            `json:"did"`
	Hashes map[string]string `json:"hashes"`
	Size   int64             `json:"size"`
	URLs   []string          `json:"urls"`
}

type indexdResponse struct {
	Records []indexdRecord `json:"records"`
}

// Location is the bucket object holding a manifest file.
type Location struct {
	ID     string
	Bucket string
	Key    string
}

// Resolve maps manifest entries to bucket locations, querying IndexD with
// up to batch ids per call. Records must come back in request order and
// agree with the manifest on id, md5 and size; each needs exactly one gs://
// URL.
func (c *Client) Resolve(ctx context.Context, entries []ManifestEntry, batch int) ([]Location, error) {
	if batch <= 0 {
		batch = 1
	}
	locations := make([]Location, 0, len(entries))
	for start := 0; start < len(entries); start += batch {
		end := min(start+batch, len(entries))
		chunk := entries[start:end]

		records, err := c.lookup(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for i, e := range chunk {
			loc, err := match(e, records[i])
			if err != nil {
				return nil, err
			}
			locations = append(locations, loc)
		}
	}
	return locations, nil
}

func (c *Client) lookup(ctx context.Context, chunk []ManifestEntry) ([]indexdRecord, error) {
	ids := make([]string, len(chunk))
	for i, e := range chunk {
		ids[i] = e.ID
	}

	resp, err := netx.Get(ctx, c.http, c.indexdURL+strings.Join(ids, ","), nil)
	if err != nil {
		return nil, fmt.Errorf("indexd lookup: %w", err)
	}
	defer resp.Body.Close()

	var body indexdResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode indexd response: %w", err)
	}
	if len(body.Records) != len(chunk) {
		return nil, fmt.Errorf("%w: asked indexd for %d ids, got %d records",
			common.ErrDataMismatch, len(chunk), len(body.Records))
	}

	c.logger.Debug(ctx, "resolved ids", "count", len(chunk))
	return body.Records, nil
}

func match(e ManifestEntry, rec indexdRecord) (Location, error) {
	if rec.DID != e.ID || rec.Hashes["md5"] != e.MD5 || rec.Size != e.Size {
		return Location{}, fmt.Errorf("%w: indexd %s md5=%s size=%d vs manifest %s md5=%s size=%d",
			common.ErrDataMismatch, rec.DID, rec.Hashes["md5"], rec.Size, e.ID, e.MD5, e.Size)
	}

	var gs []string
	for _, u := range rec.URLs {
		if strings.HasPrefix(u, "gs://") {
			gs = append(gs, u)
		}
	}
	if len(gs) != 1 {
		return Location{}, fmt.Errorf("%w: %s has gs:// urls %v", common.ErrAmbiguousLocation, e.ID, gs)
	}

	u, err := url.Parse(gs[0])
	if err != nil {
		return Location{}, fmt.Errorf("parse %s: %w", gs[0], err)
	}
	return Location{ID: e.ID, Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}, nil
}

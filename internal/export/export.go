// Package export publishes the metadata of uploaded files as
// newline-delimited JSON for warehouse loading.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/dmitrijs2005/archiveloader/internal/logging"
	"github.com/dmitrijs2005/archiveloader/internal/repositories/metadata"
)

// Project is the only project exported.
const Project = "TCGA"

const contentType = "application/x-ndjson"

type Source interface {
	SelectUploaded(ctx context.Context, project string) ([]*metadata.UploadedRow, error)
}

type Sink interface {
	PutBytes(ctx context.Context, bucket, key string, body []byte, contentType string, meta map[string]string) error
}

// Exporter selects uploaded rows, labels their sample type and writes them
// to Bucket/Key.
type Exporter struct {
	source Source
	sink   Sink
	codes  map[string]string
	bucket string
	key    string
	logger logging.Logger
}

func NewExporter(source Source, sink Sink, codes map[string]string, bucket, key string, logger logging.Logger) *Exporter {
	return &Exporter{source: source, sink: sink, codes: codes, bucket: bucket, key: key, logger: logger}
}

// Run exports and returns the number of rows written. Any row whose sample
// type code has no letter code fails the whole export.
func (e *Exporter) Run(ctx context.Context, runID string) (int, error) {
	rows, err := e.source.SelectUploaded(ctx, Project)
	if err != nil {
		return 0, fmt.Errorf("select uploaded: %w", err)
	}

	body, err := e.encode(rows)
	if err != nil {
		return 0, err
	}

	meta := map[string]string{"run-id": runID, "rows": fmt.Sprint(len(rows))}
	if err := e.sink.PutBytes(ctx, e.bucket, e.key, body, contentType, meta); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}

	e.logger.Info(ctx, "exported metadata", "rows", len(rows), "bucket", e.bucket, "key", e.key)
	return len(rows), nil
}

func (e *Exporter) encode(rows []*metadata.UploadedRow) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		letter, ok := e.codes[row.SampleTypeCode]
		if !ok {
			return nil, fmt.Errorf("%w: %q for %s", common.ErrUnknownSampleCode, row.SampleTypeCode, row.DatafileName)
		}
		row.SampleTypeLetterCode = letter
		if err := enc.Encode(row); err != nil {
			return nil, fmt.Errorf("encode %s: %w", row.DatafileName, err)
		}
	}
	return buf.Bytes(), nil
}

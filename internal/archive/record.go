// Package archive selects which files of an extracted data archive qualify
// for release and routes them to object storage.
//
// A batch walks archives newest version first. Per archive, the metadata
// index resolves each physical file, the eligibility filter and the
// batch-wide deduplicator decide its fate, and the processor prunes the
// working directory down to exactly the accepted set before upload.
package archive

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/archiveloader/internal/common"
)

// FileRecord is the typed metadata of one data file, flattened from the
// SDRF and annotation sources. Only DatafileUploaded and DatafileNameKey are
// written after construction.
type FileRecord struct {
	FileName           string
	DataLevel          string
	AliquotBarcode     string
	SampleBarcode      string
	IncludeForAnalysis string
	AnnotationCategory string
	SecurityProtocol   string
	Project            string
	Study              string
	Platform           string
	Pipeline           string
	SDRFFileName       string

	// DatafileUploaded is true once the bytes reached storage in this run.
	DatafileUploaded bool
	// DatafileNameKey is the object key assigned to an accepted file.
	DatafileNameKey string
}

var requiredColumns = []string{
	common.ColDatafileName,
	common.ColDataLevel,
	common.ColSecurityProtocol,
	common.ColProject,
	common.ColStudy,
	common.ColPlatform,
	common.ColPipeline,
}

// NewFileRecord builds a record from a raw attribute dictionary keyed by
// metadata_data column names. Required columns must be present and non-blank.
func NewFileRecord(raw map[string]string) (*FileRecord, error) {
	for _, col := range requiredColumns {
		if strings.TrimSpace(raw[col]) == "" {
			return nil, fmt.Errorf("%w: %s", common.ErrMissingField, col)
		}
	}

	return &FileRecord{
		FileName:           raw[common.ColDatafileName],
		DataLevel:          raw[common.ColDataLevel],
		AliquotBarcode:     raw[common.ColAliquotBarcode],
		SampleBarcode:      raw[common.ColSampleBarcode],
		IncludeForAnalysis: raw[common.ColIncludeForAnalysis],
		AnnotationCategory: raw[common.ColAnnotationCategory],
		SecurityProtocol:   raw[common.ColSecurityProtocol],
		Project:            raw[common.ColProject],
		Study:              raw[common.ColStudy],
		Platform:           raw[common.ColPlatform],
		Pipeline:           raw[common.ColPipeline],
		SDRFFileName:       raw[common.ColSDRFFileName],
	}, nil
}

// resetUploadState clears the post-decision fields so a rerun never trusts
// markers left over from a previous pass.
func (r *FileRecord) resetUploadState() {
	r.DatafileUploaded = false
	r.DatafileNameKey = ""
}

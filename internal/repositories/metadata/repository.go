// Package metadata stores archive and data-file metadata in PostgreSQL.
package metadata

import (
	"context"

	"github.com/dmitrijs2005/archiveloader/internal/archive"
)

// Repository reads archive metadata and records the upload state of files.
type Repository interface {
	ListArchives(ctx context.Context) ([]archive.ArchiveDescriptor, error)
	ArchiveGroups(ctx context.Context, archiveName string) ([]archive.SourceGroup, error)
	ExcludedSamples(ctx context.Context) ([]string, error)
	UpdateUploadState(ctx context.Context, archiveName string, records []*archive.FileRecord) error
	SelectUploaded(ctx context.Context, project string) ([]*UploadedRow, error)
}

// UploadedRow is one uploaded data file as exported to the warehouse.
type UploadedRow struct {
	ParticipantBarcode   string `json:"ParticipantBarcode"`
	SampleBarcode        string `json:"SampleBarcode"`
	AliquotBarcode       string `json:"AliquotBarcode"`
	DataArchiveName      string `json:"DataArchiveName"`
	DatafileName         string `json:"DatafileName"`
	DatafileNameKey      string `json:"DatafileNameKey"`
	DatafileUploaded     string `json:"DatafileUploaded"`
	DataLevel            string `json:"DataLevel"`
	IncludeForAnalysis   string `json:"IncludeForAnalysis"`
	Pipeline             string `json:"Pipeline"`
	Platform             string `json:"Platform"`
	Project              string `json:"Project"`
	SampleTypeCode       string `json:"SampleTypeCode"`
	SampleTypeLetterCode string `json:"SampleTypeLetterCode,omitempty"`
	SDRFFileName         string `json:"SDRFFileName"`
	SecurityProtocol     string `json:"SecurityProtocol"`
	Study                string `json:"Study"`
}

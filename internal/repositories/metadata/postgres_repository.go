package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/archiveloader/internal/archive"
	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/dmitrijs2005/archiveloader/internal/dbx"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListArchives returns the latest archives known to the metadata store.
func (r *PostgresRepository) ListArchives(ctx context.Context) ([]archive.ArchiveDescriptor, error) {
	query := `SELECT archive_name, archive_version, archive_url, center_name, platform
		FROM archive_info
		WHERE is_latest
		ORDER BY archive_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select archives: %w", err)
	}
	defer rows.Close()

	var result []archive.ArchiveDescriptor
	for rows.Next() {
		var d archive.ArchiveDescriptor
		var version string
		if err := rows.Scan(&d.Name, &version, &d.URL, &d.Center, &d.Platform); err != nil {
			return nil, err
		}
		if d.Version, err = archive.ParseVersion(version); err != nil {
			return nil, fmt.Errorf("archive %s: %w", d.Name, err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// metadataColumns maps selected columns, in order, to raw record keys.
var metadataColumns = []struct {
	column string
	key    string
}{
	{"datafile_name", common.ColDatafileName},
	{"data_level", common.ColDataLevel},
	{"aliquot_barcode", common.ColAliquotBarcode},
	{"sample_barcode", common.ColSampleBarcode},
	{"include_for_analysis", common.ColIncludeForAnalysis},
	{"annotation_category", common.ColAnnotationCategory},
	{"security_protocol", common.ColSecurityProtocol},
	{"project", common.ColProject},
	{"study", common.ColStudy},
	{"platform", common.ColPlatform},
	{"pipeline", common.ColPipeline},
	{"sdrf_file_name", common.ColSDRFFileName},
}

// ArchiveGroups returns the metadata rows of an archive grouped by SDRF
// file, groups and rows in insertion order. NULL columns are left out of
// the raw record.
func (r *PostgresRepository) ArchiveGroups(ctx context.Context, archiveName string) ([]archive.SourceGroup, error) {
	query := `SELECT datafile_name, data_level, aliquot_barcode, sample_barcode, include_for_analysis,
			annotation_category, security_protocol, project, study, platform, pipeline, sdrf_file_name
		FROM metadata_data
		WHERE data_archive_name=$1
		ORDER BY MIN(metadata_data_id) OVER (PARTITION BY sdrf_file_name), metadata_data_id`

	rows, err := r.db.QueryContext(ctx, query, archiveName)
	if err != nil {
		return nil, fmt.Errorf("failed to select metadata: %w", err)
	}
	defer rows.Close()

	var groups []archive.SourceGroup
	pos := make(map[string]int)
	for rows.Next() {
		values := make([]sql.NullString, len(metadataColumns))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		rec := make(archive.RawRecord, len(metadataColumns))
		for i, c := range metadataColumns {
			if values[i].Valid {
				rec[c.key] = values[i].String
			}
		}

		group := rec[common.ColSDRFFileName]
		i, ok := pos[group]
		if !ok {
			i = len(groups)
			pos[group] = i
			groups = append(groups, archive.SourceGroup{Name: group})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// ExcludedSamples returns samples whose files must never be uploaded: FFPE
// samples and samples with no project.
func (r *PostgresRepository) ExcludedSamples(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT sample_barcode FROM metadata_biospecimen
		WHERE is_ffpe='YES' OR project IS NULL OR project=''
		ORDER BY sample_barcode`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select excluded samples: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateUploadState writes the upload markers of records belonging to archiveName.
func (r *PostgresRepository) UpdateUploadState(ctx context.Context, archiveName string, records []*archive.FileRecord) error {
	query := `UPDATE metadata_data SET datafile_uploaded=$1, datafile_name_key=$2
		WHERE data_archive_name=$3 AND datafile_name=$4`

	args := make([][]any, 0, len(records))
	for _, rec := range records {
		args = append(args, []any{strconv.FormatBool(rec.DatafileUploaded), rec.DatafileNameKey, archiveName, rec.FileName})
	}
	if _, err := dbx.ExecEach(ctx, r.db, query, args); err != nil {
		return fmt.Errorf("failed to update upload state: %w", err)
	}
	return nil
}

// SelectUploaded returns the uploaded, analysis-ready files of project.
func (r *PostgresRepository) SelectUploaded(ctx context.Context, project string) ([]*UploadedRow, error) {
	query := `SELECT COALESCE(participant_barcode, ''), sample_barcode, aliquot_barcode, data_archive_name,
			datafile_name, datafile_name_key, datafile_uploaded, data_level, COALESCE(include_for_analysis, ''),
			pipeline, platform, project, COALESCE(sample_type_code, ''), COALESCE(sdrf_file_name, ''),
			security_protocol, study
		FROM metadata_data
		WHERE project=$1
			AND datafile_uploaded='true'
			AND datafile_name_key IS NOT NULL AND datafile_name_key <> ''
			AND include_for_analysis='yes'
		ORDER BY metadata_data_id`

	rows, err := r.db.QueryContext(ctx, query, project)
	if err != nil {
		return nil, fmt.Errorf("failed to select uploaded files: %w", err)
	}
	defer rows.Close()

	var result []*UploadedRow
	for rows.Next() {
		var u UploadedRow
		if err := rows.Scan(&u.ParticipantBarcode, &u.SampleBarcode, &u.AliquotBarcode, &u.DataArchiveName,
			&u.DatafileName, &u.DatafileNameKey, &u.DatafileUploaded, &u.DataLevel, &u.IncludeForAnalysis,
			&u.Pipeline, &u.Platform, &u.Project, &u.SampleTypeCode, &u.SDRFFileName,
			&u.SecurityProtocol, &u.Study); err != nil {
			return nil, err
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

package metadata

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/archiveloader/internal/archive"
	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var groupColumns = []string{"datafile_name", "data_level", "aliquot_barcode", "sample_barcode", "include_for_analysis",
	"annotation_category", "security_protocol", "project", "study", "platform", "pipeline", "sdrf_file_name"}

func TestListArchives_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"archive_name", "archive_version", "archive_url", "center_name", "platform"}).
		AddRow("jhu-usc.edu_GBM.HumanMethylation27.Level_3.1.2.0", "1.2.0", "https://dcc/open/a.tar.gz", "jhu-usc.edu", "HumanMethylation27").
		AddRow("jhu-usc.edu_GBM.HumanMethylation27.Level_3.1.10.0", "1.10.0", "https://dcc/tcga4yeo/b.tar.gz", "jhu-usc.edu", "HumanMethylation27")
	mock.ExpectQuery(`(?s)^SELECT\s+archive_name,.*FROM\s+archive_info\s+WHERE\s+is_latest`).WillReturnRows(rows)

	got, err := repo.ListArchives(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, archive.Version{1, 2, 0}, got[0].Version)
	assert.Equal(t, archive.Version{1, 10, 0}, got[1].Version)
	assert.Equal(t, "jhu-usc.edu", got[1].Center)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListArchives_BadVersion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"archive_name", "archive_version", "archive_url", "center_name", "platform"}).
		AddRow("a", "one.two", "u", "c", "p")
	mock.ExpectQuery(`FROM\s+archive_info`).WillReturnRows(rows)

	_, err := repo.ListArchives(context.Background())
	require.ErrorIs(t, err, common.ErrInvalidVersion)
}

func TestListArchives_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+archive_info`).WillReturnError(errors.New("db down"))

	_, err := repo.ListArchives(context.Background())
	if err == nil || !regexp.MustCompile(`failed to select archives: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestArchiveGroups_GroupsBySDRFInOrder(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(groupColumns).
		AddRow("a.txt", "Level 3", "TCGA-AB", "TCGA-A", "yes", nil, "DBGap Open Access", "TCGA", "GBM", "p", "q", "second.sdrf.txt").
		AddRow("b.txt", "Level 3", "TCGA-AB", "TCGA-A", "no", "Item flagged DNU", "DBGap Open Access", "TCGA", "GBM", "p", "q", "second.sdrf.txt").
		AddRow("a.txt", "Level 3", "TCGA-CD", "TCGA-C", "yes", nil, "DBGap Open Access", "TCGA", "GBM", "p", "q", "first.sdrf.txt")
	mock.ExpectQuery(`(?s)^SELECT\s+datafile_name,.*FROM\s+metadata_data\s+WHERE\s+data_archive_name=\$1`).
		WithArgs("arch").
		WillReturnRows(rows)

	got, err := repo.ArchiveGroups(context.Background(), "arch")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "second.sdrf.txt", got[0].Name)
	assert.Len(t, got[0].Records, 2)
	assert.Equal(t, "first.sdrf.txt", got[1].Name)

	first := got[0].Records[0]
	_, hasAnnotation := first[common.ColAnnotationCategory]
	assert.False(t, hasAnnotation, "NULL columns stay absent")
	assert.Equal(t, "Item flagged DNU", got[0].Records[1][common.ColAnnotationCategory])
	assert.Empty(t, cmp.Diff(archive.RawRecord{
		common.ColDatafileName:       "a.txt",
		common.ColDataLevel:          "Level 3",
		common.ColAliquotBarcode:     "TCGA-AB",
		common.ColSampleBarcode:      "TCGA-A",
		common.ColIncludeForAnalysis: "yes",
		common.ColSecurityProtocol:   "DBGap Open Access",
		common.ColProject:            "TCGA",
		common.ColStudy:              "GBM",
		common.ColPlatform:           "p",
		common.ColPipeline:           "q",
		common.ColSDRFFileName:       "second.sdrf.txt",
	}, first))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveGroups_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"datafile_name"}).AddRow("a.txt")
	mock.ExpectQuery(`FROM\s+metadata_data`).WithArgs("arch").WillReturnRows(rows)

	_, err := repo.ArchiveGroups(context.Background(), "arch")
	require.Error(t, err)
}

func TestExcludedSamples(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"sample_barcode"}).AddRow("TCGA-01").AddRow("TCGA-02")
	mock.ExpectQuery(`(?s)FROM\s+metadata_biospecimen\s+WHERE\s+is_ffpe='YES'`).WillReturnRows(rows)

	got, err := repo.ExcludedSamples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"TCGA-01", "TCGA-02"}, got)
}

func TestUpdateUploadState(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+metadata_data\s+SET\s+datafile_uploaded=\$1,\s*datafile_name_key=\$2\s+WHERE\s+data_archive_name=\$3\s+AND\s+datafile_name=\$4$`
	mock.ExpectExec(q).WithArgs("true", "/tcga/gbm/p/q/Level_3/a.txt", "arch", "a.txt").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("false", "", "arch", "b.txt").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateUploadState(context.Background(), "arch", []*archive.FileRecord{
		{FileName: "a.txt", DatafileUploaded: true, DatafileNameKey: "/tcga/gbm/p/q/Level_3/a.txt"},
		{FileName: "b.txt"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUploadState_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+metadata_data`).WillReturnError(errors.New("db down"))

	err := repo.UpdateUploadState(context.Background(), "arch", []*archive.FileRecord{{FileName: "a.txt"}})
	if err == nil || !regexp.MustCompile(`failed to update upload state: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSelectUploaded(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	cols := []string{"participant_barcode", "sample_barcode", "aliquot_barcode", "data_archive_name",
		"datafile_name", "datafile_name_key", "datafile_uploaded", "data_level", "include_for_analysis",
		"pipeline", "platform", "project", "sample_type_code", "sdrf_file_name", "security_protocol", "study"}
	rows := sqlmock.NewRows(cols).AddRow("TCGA-AB-1234", "TCGA-AB-1234-01A", "TCGA-AB-1234-01A-11D", "arch",
		"a.txt", "/tcga/gbm/p/q/Level_3/a.txt", "true", "Level 3", "yes",
		"q", "p", "TCGA", "01", "x.sdrf.txt", "DBGap Open Access", "GBM")
	mock.ExpectQuery(`(?s)FROM\s+metadata_data\s+WHERE\s+project=\$1\s+AND\s+datafile_uploaded='true'`).
		WithArgs("TCGA").WillReturnRows(rows)

	got, err := repo.SelectUploaded(context.Background(), "TCGA")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "01", got[0].SampleTypeCode)
	assert.Equal(t, "/tcga/gbm/p/q/Level_3/a.txt", got[0].DatafileNameKey)
}

func TestStateWriter_CommitsInTx(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE\s+metadata_data`).WithArgs("true", "k", "arch", "a.txt").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := NewStateWriter(db)
	err = w.SaveUploadState(context.Background(), "arch", []*archive.FileRecord{
		{FileName: "a.txt", DatafileUploaded: true, DatafileNameKey: "k"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStateWriter_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE\s+metadata_data`).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err = NewStateWriter(db).SaveUploadState(context.Background(), "arch", []*archive.FileRecord{{FileName: "a.txt"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStateWriter_NoRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewStateWriter(db).SaveUploadState(context.Background(), "arch", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

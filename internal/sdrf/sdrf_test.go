package sdrf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/archiveloader/internal/archive"
	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTSV(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

const header = "DatafileName\tDataLevel\tAliquotBarcode\tSampleBarcode\tIncludeForAnalysis\tAnnotationCategory\tSecurityProtocol\tProject\tStudy\tPlatform\tPipeline\tExtra"

func TestListArchives(t *testing.T) {
	dir := t.TempDir()
	writeTSV(t, dir, archivesFile,
		"archive_name\tarchive_version\tarchive_url\tcenter_name\tplatform",
		"jhu-usc.edu_GBM.HumanMethylation27.Level_3.1.2.0\t1.2.0\thttps://dcc/a.tar.gz\tjhu-usc.edu\tHumanMethylation27",
	)

	got, err := NewDirSource(dir).ListArchives(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, archive.ArchiveDescriptor{
		Name:     "jhu-usc.edu_GBM.HumanMethylation27.Level_3.1.2.0",
		Version:  archive.Version{1, 2, 0},
		URL:      "https://dcc/a.tar.gz",
		Center:   "jhu-usc.edu",
		Platform: "HumanMethylation27",
	}, got[0])
}

func TestListArchives_BadVersion(t *testing.T) {
	dir := t.TempDir()
	writeTSV(t, dir, archivesFile,
		"archive_name\tarchive_version\tarchive_url\tcenter_name\tplatform",
		"a\tlatest\tu\tc\tp",
	)

	_, err := NewDirSource(dir).ListArchives(context.Background())
	require.ErrorIs(t, err, common.ErrInvalidVersion)
}

func TestListArchives_MissingFile(t *testing.T) {
	_, err := NewDirSource(t.TempDir()).ListArchives(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestArchiveGroups_OneGroupPerFile(t *testing.T) {
	dir := t.TempDir()
	name := "center_GBM.platformX.Level_2.1.0.0"
	writeTSV(t, dir, name+".b.sdrf.txt",
		header,
		"a.txt\tLevel 2\tTCGA-AB\tTCGA-A\tyes\t\tDBGap Open Access\tTCGA\tGBM\tplatformX\tpipelineY\tignored",
	)
	writeTSV(t, dir, name+".a.sdrf.txt",
		header,
		"a.txt\tLevel 2\tTCGA-CD\tTCGA-C\tno\tItem flagged DNU\tDBGap Open Access\tTCGA\tGBM\tplatformX\tpipelineY\t",
		"b.txt\tLevel 2\tTCGA-CD\tTCGA-C\tyes\t\tDBGap Open Access\tTCGA\tGBM\tplatformX\tpipelineY\t",
	)
	writeTSV(t, dir, "other.sdrf.txt", header)

	groups, err := NewDirSource(dir).ArchiveGroups(context.Background(), name)
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, name+".a.sdrf.txt", groups[0].Name)
	assert.Len(t, groups[0].Records, 2)
	assert.Equal(t, "Item flagged DNU", groups[0].Records[0][common.ColAnnotationCategory])
	assert.Equal(t, name+".a.sdrf.txt", groups[0].Records[0][common.ColSDRFFileName])

	first := groups[1].Records[0]
	_, hasAnnotation := first[common.ColAnnotationCategory]
	assert.False(t, hasAnnotation, "blank cells are absent")

	rec, err := archive.NewFileRecord(first)
	require.NoError(t, err)
	assert.Equal(t, "TCGA-AB", rec.AliquotBarcode)
}

func TestArchiveGroups_IgnoresArchivesSharingTheNamePrefix(t *testing.T) {
	dir := t.TempDir()
	name := "center_GBM.platformX.Level_2.1.0.0"
	writeTSV(t, dir, name+".sdrf.txt",
		header,
		"a.txt\tLevel 2\tTCGA-AB\tTCGA-A\tyes\t\tDBGap Open Access\tTCGA\tGBM\tplatformX\tpipelineY\t",
	)
	writeTSV(t, dir, name+"1.sdrf.txt",
		header,
		"z.txt\tLevel 2\tTCGA-ZZ\tTCGA-Z\tyes\t\tDBGap Open Access\tTCGA\tGBM\tplatformX\tpipelineY\t",
	)
	writeTSV(t, dir, name+"1.part.sdrf.txt", header)

	groups, err := NewDirSource(dir).ArchiveGroups(context.Background(), name)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, name+".sdrf.txt", groups[0].Name)
	require.Len(t, groups[0].Records, 1)
	assert.Equal(t, "a.txt", groups[0].Records[0][common.ColDatafileName])
}

func TestArchiveGroups_NoFile(t *testing.T) {
	_, err := NewDirSource(t.TempDir()).ArchiveGroups(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestArchiveGroups_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	writeTSV(t, dir, "arch.sdrf.txt", header)

	groups, err := NewDirSource(dir).ArchiveGroups(context.Background(), "arch")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Empty(t, groups[0].Records)
}

func TestParseTSV_Empty(t *testing.T) {
	rows, err := parseTSV[fileRow](strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGlobEscape(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d`, globEscape("a*b?c[d"))
}

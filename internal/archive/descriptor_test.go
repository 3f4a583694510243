package archive

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.8.0")
	require.NoError(t, err)
	assert.Equal(t, Version{1, 8, 0}, v)
	assert.Equal(t, "1.8.0", v.String())

	for _, bad := range []string{"", "1.a", "1..2", "-1"} {
		_, err := ParseVersion(bad)
		assert.True(t, errors.Is(err, common.ErrInvalidVersion), bad)
	}
}

func TestVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3", "5", -1},
		{"5", "3", 1},
		{"1.10.0", "1.9.0", 1},
		{"2", "2.0.0", 0},
		{"2.0.1", "2", 1},
	}
	for _, tt := range tests {
		a, err := ParseVersion(tt.a)
		require.NoError(t, err)
		b, err := ParseVersion(tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, a.Compare(b), "%s vs %s", tt.a, tt.b)
	}
}

func TestArchiveDescriptor_AccessClass(t *testing.T) {
	open := ArchiveDescriptor{URL: "https://tcga-data.nci.nih.gov/tcgafiles/ftp_auth/distro_ftpusers/anonymous/tumor/x.tar.gz"}
	controlled := ArchiveDescriptor{URL: "https://tcga-data-secure.nci.nih.gov/tcgafiles/tcga4yeo/tumor/x.tar.gz"}

	assert.Equal(t, AccessOpen, open.AccessClass(""))
	assert.Equal(t, AccessControlled, controlled.AccessClass(""))
	assert.Equal(t, AccessControlled, open.AccessClass("anonymous"))
}

func TestArchiveDescriptor_Level(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"jhu-usc.edu_BRCA.HumanMethylation450.Level_3.1.8.0", "Level 3"},
		{"TCGA.test.Level_2.3.0", "Level 2"},
		{"unc.edu_GBM.IlluminaHiSeq_RNASeqV2.Level_1.12.0.0", "Level 1"},
	}
	for _, tt := range tests {
		got, err := ArchiveDescriptor{Name: tt.name}.Level()
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := ArchiveDescriptor{Name: "no.level.here.1.0.0"}.Level()
	assert.True(t, errors.Is(err, common.ErrInvalidLevel))
}

package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/archiveloader/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndex_FirstSeenWins(t *testing.T) {
	groups := []SourceGroup{
		{Name: "first.sdrf.txt", Records: []RawRecord{raw("a.txt", "Study", "First"), raw("b.txt")}},
		{Name: "second.sdrf.txt", Records: []RawRecord{raw("a.txt", "Study", "Second"), raw("c.txt")}},
	}

	ix := BuildIndex(context.Background(), groups, quietLogger())

	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, []string{"a.txt"}, ix.Duplicates)

	r, ok := ix.Lookup("a.txt")
	require.True(t, ok)
	require.NoError(t, r.Err)
	assert.Equal(t, "First", r.Record.Study)

	var names []string
	for _, rec := range ix.Records() {
		names = append(names, rec.FileName)
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}

func TestBuildIndex_ResolutionFailureIsKept(t *testing.T) {
	bad := raw("bad.txt")
	delete(bad, "Platform")
	groups := []SourceGroup{{Name: "g", Records: []RawRecord{bad, raw("good.txt"), {"Study": "x"}}}}

	ix := BuildIndex(context.Background(), groups, quietLogger())

	r, ok := ix.Lookup("bad.txt")
	require.True(t, ok)
	assert.True(t, errors.Is(r.Err, common.ErrMissingField))
	assert.Nil(t, r.Record)
	assert.Equal(t, 1, ix.Unnamed)
	assert.Len(t, ix.Records(), 1)
}

func TestIndex_Orphans(t *testing.T) {
	ix := BuildIndex(context.Background(), []SourceGroup{{Records: []RawRecord{raw("a.txt")}}}, quietLogger())

	assert.Equal(t, []string{"MANIFEST.txt", "z.txt"}, ix.Orphans([]string{"z.txt", "a.txt", "MANIFEST.txt"}))
	assert.Empty(t, ix.Orphans([]string{"a.txt"}))
}

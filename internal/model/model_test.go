package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Grid ")
	require.NoError(t, err)
	assert.Equal(t, ModeGrid, m)

	_, err = ParseMode("tiles")
	assert.Error(t, err)
	assert.False(t, ModeUnknown.Valid())
}

func TestParseSortOrder(t *testing.T) {
	testCases := []struct {
		in   string
		want SortOrder
	}{
		{"name", SortByName},
		{"modified", SortByDate},
		{"SIZE", SortBySize},
	}
	for _, tc := range testCases {
		got, err := ParseSortOrder(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.NotEqual(t, "unknown", got.String())
	}
}

func TestItemFlags(t *testing.T) {
	dir := Item{MimeType: MimeTypeDir}
	assert.True(t, dir.IsContainer())

	file := Item{MimeType: "image/png", Flags: FlagSupportsThumbnail | FlagDeletable}
	assert.False(t, file.IsContainer())
	assert.True(t, file.SupportsThumbnail())
	assert.True(t, file.IsDeletable())
}

func TestDocIDComparedByValue(t *testing.T) {
	a := DocID{Authority: "local", DocumentID: "/tmp/a"}
	b := DocID{Authority: "local", DocumentID: "/tmp/a"}
	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.True(t, DocID{}.IsZero())
}

package lspserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStoreMonotonicVersions(t *testing.T) {
	s := NewDocumentStore()

	require.True(t, s.Replace("file:///a.mcn", "mcn", 1, "one"))
	require.True(t, s.Replace("file:///a.mcn", "mcn", 3, "three"))

	// Equal and older versions are rejected without touching state.
	assert.False(t, s.Replace("file:///a.mcn", "mcn", 3, "stale"))
	assert.False(t, s.Replace("file:///a.mcn", "mcn", 2, "stale"))
	assert.Equal(t, "three", s.Current().Text)
	assert.Equal(t, int32(3), s.Current().Version)
}

func TestDocumentStoreKeepsLanguageIDAcrossChanges(t *testing.T) {
	s := NewDocumentStore()

	require.True(t, s.Replace("file:///a.mcn", "mcn", 1, "one"))
	require.True(t, s.Replace("file:///a.mcn", "", 2, "two"))
	assert.Equal(t, "mcn", s.Current().LanguageID)
}

func TestDocumentStoreVersionFloorSurvivesClose(t *testing.T) {
	s := NewDocumentStore()

	require.True(t, s.Replace("file:///a.mcn", "mcn", 5, "five"))
	s.Close()
	assert.Nil(t, s.Current())

	// Reopening at an older version is still stale.
	assert.False(t, s.Replace("file:///a.mcn", "mcn", 4, "four"))
	assert.True(t, s.Replace("file:///a.mcn", "mcn", 6, "six"))
}

func TestDocumentStoreEmptyCurrent(t *testing.T) {
	s := NewDocumentStore()
	assert.Nil(t, s.Current())
}

package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaySingleSnapshot(t *testing.T) {
	result, err := Replay(nil, 1, []Snapshot{{Label: "v1", Text: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Document.String())
	assert.Equal(t, 5, result.AtomCount)
}

func TestReplayAppliesEditsAcrossSnapshots(t *testing.T) {
	snapshots := []Snapshot{
		{Label: "v1", Text: "hello"},
		{Label: "v2", Text: "hello world"},
		{Label: "v3", Text: "helo world"},
	}
	result, err := Replay(nil, 1, snapshots)
	require.NoError(t, err)
	assert.Equal(t, "helo world", result.Document.String())
}

func TestReplayEmptyHistory(t *testing.T) {
	result, err := Replay(nil, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "", result.Document.String())
	assert.Equal(t, 0, result.AtomCount)
}

func TestReplayProducesValidWeave(t *testing.T) {
	snapshots := []Snapshot{
		{Label: "v1", Text: "abc"},
		{Label: "v2", Text: "abcdef"},
		{Label: "v3", Text: "adef"},
	}
	result, err := Replay(nil, 1, snapshots)
	require.NoError(t, err)
	assert.NoError(t, result.Document.Weave().Validate())
}

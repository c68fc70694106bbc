package meowid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { NodeId = 0 })

	require.NoError(t, Init("12"))
	assert.Equal(t, int64(12), NodeId)

	assert.ErrorIs(t, Init("2048"), ErrInvalidNodeId)
	assert.ErrorIs(t, Init("-1"), ErrInvalidNodeId)
	assert.Error(t, Init("abc"))
}

func TestGenIdRoundTrip(t *testing.T) {
	t.Cleanup(func() { NodeId = 0 })
	require.NoError(t, Init("7"))

	before := time.Now().UnixMilli()
	id := GenId()
	after := time.Now().UnixMilli()

	parts := Extract(id)
	assert.Equal(t, int64(7), parts.NodeId)
	assert.GreaterOrEqual(t, parts.Timestamp, before)
	assert.LessOrEqual(t, parts.Timestamp, after)
}

func TestGenIdUnique(t *testing.T) {
	seen := make(map[MeowID]bool, 10000)
	var last MeowID
	for i := 0; i < 10000; i++ {
		id := GenId()
		require.False(t, seen[id], "duplicate id %d", id)
		require.Greater(t, id, last)
		seen[id] = true
		last = id
	}
}

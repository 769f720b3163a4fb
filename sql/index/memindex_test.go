package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/sql"
)

func TestMultimapIndex_InsertAndPointLookup(t *testing.T) {
	idx := NewMultimapIndex("dept", 100)
	require.NoError(t, idx.Insert([]byte("Eng"), sql.RowID(1)))
	require.NoError(t, idx.Insert([]byte("Eng"), sql.RowID(2)))
	require.NoError(t, idx.Insert([]byte("Sales"), sql.RowID(3)))

	ids, err := idx.PointLookup([]byte("Eng"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []sql.RowID{1, 2}, ids)
	assert.Equal(t, 3, idx.Len())
}

func TestMultimapIndex_DeleteRemovesPosting(t *testing.T) {
	idx := NewMultimapIndex("dept", 100)
	require.NoError(t, idx.Insert([]byte("Eng"), sql.RowID(1)))
	require.NoError(t, idx.Insert([]byte("Eng"), sql.RowID(2)))

	require.NoError(t, idx.Delete([]byte("Eng"), sql.RowID(1)))
	ids, err := idx.PointLookup([]byte("Eng"))
	require.NoError(t, err)
	assert.Equal(t, []sql.RowID{2}, ids)
}

func TestMultimapIndex_RangeReturnsSortedKeyOrder(t *testing.T) {
	idx := NewMultimapIndex("id", 100)
	require.NoError(t, idx.Insert([]byte("b"), sql.RowID(2)))
	require.NoError(t, idx.Insert([]byte("a"), sql.RowID(1)))
	require.NoError(t, idx.Insert([]byte("c"), sql.RowID(3)))

	ids, err := idx.Range(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []sql.RowID{1, 2, 3}, ids)

	rev, err := idx.Range(nil, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []sql.RowID{3, 2, 1}, rev)
}

// Crossing the threshold escalates storage to a boltdb-backed overflow file;
// lookups inserted before and after the escalation must both still resolve.
func TestMultimapIndex_EscalatesToOverflowPastThreshold(t *testing.T) {
	idx := NewMultimapIndex("id", 3)
	defer idx.Close()

	require.NoError(t, idx.Insert([]byte("k1"), sql.RowID(1)))
	require.NoError(t, idx.Insert([]byte("k2"), sql.RowID(2)))
	require.NoError(t, idx.Insert([]byte("k3"), sql.RowID(3)))
	require.NoError(t, idx.Insert([]byte("k4"), sql.RowID(4)))

	ids, err := idx.PointLookup([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []sql.RowID{1}, ids)

	ids, err = idx.PointLookup([]byte("k4"))
	require.NoError(t, err)
	assert.Equal(t, []sql.RowID{4}, ids)

	require.NoError(t, idx.Delete([]byte("k2"), sql.RowID(2)))
	ids, err = idx.PointLookup([]byte("k2"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

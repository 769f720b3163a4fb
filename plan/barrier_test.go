package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/memory"
	"github.com/relit/relit/sql"
)

func lettersTable(t *testing.T) *BaseTable {
	t.Helper()
	schema := sql.Schema{{Name: "id", Type: sql.TypeInt, IndexHint: sql.IndexPrimary}}
	storage := memory.NewStorage(schema, sql.DefaultConfig())
	for i := int64(1); i <= 5; i++ {
		_, err := storage.Insert(sql.Row{"id": sql.Int(i)})
		require.NoError(t, err)
	}
	return NewBaseTable("letters", storage)
}

// filteredLetters returns a Filter node over lettersTable (id >= 1, i.e. the
// whole table), built with NewFilter because BaseTable.Gte would push the
// clause down and stay a BaseTable. Limit/Offset calls on it therefore can't
// be absorbed by BaseTable's own sql.Paginator implementation — they must go
// through a real Barrier, which is what these tests exercise.
func filteredLetters(t *testing.T) sql.Table {
	t.Helper()
	return NewFilter(lettersTable(t), sql.Clause{Column: "id", Op: sql.OpGte, Value: sql.BoundValue(sql.Int(1))})
}

func TestBarrierIfPaginated_LeavesUnpaginatedTableAlone(t *testing.T) {
	tbl := filteredLetters(t)
	assert.Same(t, tbl, BarrierIfPaginated(tbl))
}

func TestBarrierIfPaginated_DoesNotDoubleWrap(t *testing.T) {
	tbl := filteredLetters(t)
	limited, err := tbl.Limit(3)
	require.NoError(t, err)
	b, ok := limited.(*Barrier)
	require.True(t, ok)

	wrapped := BarrierIfPaginated(b)
	assert.Same(t, sql.Table(b), wrapped)
}

// A Barrier's GetLimit/GetOffset must always lie to a parent so a second
// Barrier is never stacked on top of an already-absorbed one.
func TestBarrier_LiesAboutItsOwnWindowToParents(t *testing.T) {
	tbl := filteredLetters(t)
	limited, err := tbl.Limit(3)
	require.NoError(t, err)
	b := limited.(*Barrier)

	_, hasLimit := b.GetLimit()
	assert.False(t, hasLimit)
	assert.Equal(t, int64(0), b.GetOffset())

	hasLimit, limit, offset := b.CurrentPagination()
	assert.True(t, hasLimit)
	assert.Equal(t, int64(3), limit)
	assert.Equal(t, int64(0), offset)
}

// Chaining .limit(3) then .offset(1) on the same freshly-created Barrier
// must preserve the limit rather than losing it to the lying GetLimit.
func TestBarrier_ChainedLimitThenOffsetPreservesBoth(t *testing.T) {
	tbl := filteredLetters(t)
	limited, err := tbl.Limit(3)
	require.NoError(t, err)

	withOffset, err := limited.Offset(1)
	require.NoError(t, err)
	b, ok := withOffset.(*Barrier)
	require.True(t, ok)

	hasLimit, limit, offset := b.CurrentPagination()
	assert.True(t, hasLimit)
	assert.Equal(t, int64(3), limit)
	assert.Equal(t, int64(1), offset)

	ctx := sql.NewEmptyContext()
	_, rows, err := b.window(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	got := make([]int64, len(rows))
	for i, r := range rows {
		got[i] = r.Get("id").Int
	}
	assert.Equal(t, []int64{2, 3, 4}, got)
}

// And the reverse order, .offset(1) then .limit(3), must land on the same
// window since both calls land on the same Barrier instance.
func TestBarrier_ChainedOffsetThenLimitPreservesBoth(t *testing.T) {
	tbl := filteredLetters(t)
	withOffset, err := tbl.Offset(1)
	require.NoError(t, err)

	limited, err := withOffset.Limit(3)
	require.NoError(t, err)
	b, ok := limited.(*Barrier)
	require.True(t, ok)

	hasLimit, limit, offset := b.CurrentPagination()
	assert.True(t, hasLimit)
	assert.Equal(t, int64(3), limit)
	assert.Equal(t, int64(1), offset)
}

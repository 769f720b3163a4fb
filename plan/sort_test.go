package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/memory"
	"github.com/relit/relit/sql"
)

func scoresTable(t *testing.T) *BaseTable {
	t.Helper()
	schema := sql.Schema{
		{Name: "id", Type: sql.TypeInt, IndexHint: sql.IndexPrimary},
		{Name: "score", Type: sql.TypeInt},
	}
	storage := memory.NewStorage(schema, sql.DefaultConfig())
	vals := []int64{30, 10, 50, 20, 40}
	for i, v := range vals {
		_, err := storage.Insert(sql.Row{"id": sql.Int(int64(i)), "score": sql.Int(v)})
		require.NoError(t, err)
	}
	return NewBaseTable("scores", storage)
}

// A Barrier sitting directly atop a Sort with a small enough k uses the
// bounded top-k heap path (TopK), not a full materialize-then-slice sort,
// and must produce the same answer as the full sort would.
func TestSort_BoundedTopKMatchesFullSort(t *testing.T) {
	scores := scoresTable(t)

	ordered, err := scores.Order(sql.OrderDef{Column: "score", Direction: sql.Desc})
	require.NoError(t, err)
	sortNode, ok := ordered.(*Sort)
	require.True(t, ok)

	limited, err := ordered.Limit(3)
	require.NoError(t, err)
	barrier, ok := limited.(*Barrier)
	require.True(t, ok)
	assert.Same(t, sortNode, barrier.child)

	ctx := sql.NewEmptyContext()
	_, rows, err := barrier.window(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	got := make([]int64, len(rows))
	for i, r := range rows {
		got[i] = r.Get("score").Int
	}
	assert.Equal(t, []int64{50, 40, 30}, got)
}

// Past the configured heap ceiling, the Barrier must fall back to full
// materialization rather than ever calling TopK with an unbounded k.
func TestSort_FallsBackToFullSortAboveHeapCeiling(t *testing.T) {
	scores := scoresTable(t)
	cfg := sql.DefaultConfig()
	cfg.SortHeapMaxK = 2
	SetConfig(cfg)
	defer SetConfig(sql.DefaultConfig())

	ordered, err := scores.Order(sql.OrderDef{Column: "score", Direction: sql.Asc})
	require.NoError(t, err)
	limited, err := ordered.Limit(3)
	require.NoError(t, err)
	barrier := limited.(*Barrier)

	ctx := sql.NewEmptyContext()
	_, rows, err := barrier.window(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	got := make([]int64, len(rows))
	for i, r := range rows {
		got[i] = r.Get("score").Int
	}
	assert.Equal(t, []int64{10, 20, 30}, got)
}

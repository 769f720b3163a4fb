package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/memory"
	"github.com/relit/relit/sql"
)

func TestOr_MatchesRowSatisfyingAnyPredicate(t *testing.T) {
	base := deptTable(t)

	result, err := base.Or(
		sql.Predicate{Clauses: []sql.Clause{{Column: "dept", Op: sql.OpEq, Value: sql.BoundValue(sql.Text("Sales"))}}},
		sql.Predicate{Clauses: []sql.Clause{{Column: "dept", Op: sql.OpEq, Value: sql.BoundValue(sql.Text("HR"))}}},
	)
	require.NoError(t, err)

	ctx := sql.NewEmptyContext()
	n, err := result.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestOr_EmptyPredicateListMatchesNothing(t *testing.T) {
	base := deptTable(t)

	result, err := base.Or()
	require.NoError(t, err)

	ctx := sql.NewEmptyContext()
	n, err := result.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestOr_AbsorbsPendingPaginationBeforeWrapping(t *testing.T) {
	schema := sql.Schema{{Name: "id", Type: sql.TypeInt, IndexHint: sql.IndexPrimary}}
	storage := memory.NewStorage(schema, sql.DefaultConfig())
	for i := int64(1); i <= 5; i++ {
		_, err := storage.Insert(sql.Row{"id": sql.Int(i)})
		require.NoError(t, err)
	}
	base := NewBaseTable("letters", storage)

	limited, err := base.Limit(3)
	require.NoError(t, err)

	result, err := limited.Or(
		sql.Predicate{Clauses: []sql.Clause{{Column: "id", Op: sql.OpGte, Value: sql.BoundValue(sql.Int(1))}}},
	)
	require.NoError(t, err)
	orNode, ok := result.(*Or)
	require.True(t, ok)
	_, ok = orNode.Child().(*Barrier)
	assert.True(t, ok)
}

package plan

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/memory"
	"github.com/relit/relit/sql"
)

func usersSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: sql.TypeInt, IndexHint: sql.IndexPrimary},
		{Name: "dept", Type: sql.TypeText, IndexHint: sql.IndexSecondary},
		{Name: "age", Type: sql.TypeInt, IndexHint: sql.IndexSecondary},
	}
}

func seedUsers(t *testing.T) *BaseTable {
	t.Helper()
	storage := memory.NewStorage(usersSchema(), sql.DefaultConfig())
	rows := []sql.Row{
		{"id": sql.Int(1), "dept": sql.Text("Eng"), "age": sql.Int(25)},
		{"id": sql.Int(2), "dept": sql.Text("Sales"), "age": sql.Int(30)},
		{"id": sql.Int(3), "dept": sql.Text("Eng"), "age": sql.Int(45)},
		{"id": sql.Int(4), "dept": sql.Text("Sales"), "age": sql.Int(50)},
		{"id": sql.Int(5), "dept": sql.Text("HR"), "age": sql.Int(35)},
	}
	for _, r := range rows {
		_, err := storage.Insert(r)
		require.NoError(t, err)
	}
	return NewBaseTable("users", storage)
}

func drainIDs(t *testing.T, tbl sql.Table) []int64 {
	t.Helper()
	ctx := sql.NewEmptyContext()
	it, err := tbl.Iterate(ctx)
	require.NoError(t, err)
	defer it.Close(ctx)
	var ids []int64
	for {
		_, row, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, row.Get("id").Int)
	}
	return ids
}

// users.limit(5).eq(dept, "Sales") must barrier-absorb the limit before the
// eq filter narrows further: the limit freezes the first 5 rows (ids 1..5)
// in insertion order, and only then is the Sales filter applied, yielding
// [2, 4] rather than every Sales row in the whole table.
func TestScenario_LimitThenEqAbsorbsBarrier(t *testing.T) {
	users := seedUsers(t)

	limited, err := users.Limit(5)
	require.NoError(t, err)

	bt, ok := limited.(*BaseTable)
	require.True(t, ok, "Limit on a fresh base table should accumulate on a BaseTable clone, got %T", limited)
	assert.Equal(t, int64(5), bt.limit)

	filtered, err := limited.Eq("dept", sql.Text("Sales"))
	require.NoError(t, err)

	f, ok := filtered.(*Filter)
	if !ok {
		t.Fatalf("expected Eq after Limit to produce a Filter wrapping the frozen Barrier, got %T", filtered)
	}
	barrier, ok := f.child.(*Barrier)
	require.True(t, ok, "expected the Filter's child to be the frozen Barrier, got %T", f.child)
	assert.Equal(t, int64(5), barrier.limit)

	ids := drainIDs(t, filtered)
	assert.Equal(t, []int64{2, 4}, ids)
}

// users.gt(age, 40).lt(age, 20) can never match any row (40 < age < 20 is a
// contradiction), and must be proven empty at builder time — not merely at
// iteration time — even though `users` is a BaseTable, not a pre-wrapped
// Filter.
func TestScenario_ContradictoryRangeProvenEmptyAtBuilderTime(t *testing.T) {
	users := seedUsers(t)

	gt40, err := users.Gt("age", sql.Int(40))
	require.NoError(t, err)

	contradiction, err := gt40.Lt("age", sql.Int(20))
	require.NoError(t, err)

	empty, ok := contradiction.(*EmptyTable)
	require.True(t, ok, "expected a builder-time EmptyTable, got %T", contradiction)

	ids := drainIDs(t, empty)
	assert.Empty(t, ids)

	n, err := empty.Count(sql.NewEmptyContext())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// A consistent chain (age > 20, age < 40) is NOT proven empty and still
// narrows the base table via ordinary push-down fusion into one tightened
// range, without ever wrapping a Barrier (no pagination was ever requested).
func TestScenario_ConsistentRangeFusesWithoutBarrier(t *testing.T) {
	users := seedUsers(t)

	narrowed, err := users.Gt("age", sql.Int(20))
	require.NoError(t, err)
	narrowed, err = narrowed.Lt("age", sql.Int(40))
	require.NoError(t, err)

	if _, ok := narrowed.(*Barrier); ok {
		t.Fatalf("consistent range push-down should not wrap a Barrier")
	}
	bt, ok := narrowed.(*BaseTable)
	require.True(t, ok, "push-down chaining on a base table should stay a BaseTable, got %T", narrowed)
	assert.Len(t, bt.pred.Clauses, 2)

	ids := drainIDs(t, narrowed)
	assert.ElementsMatch(t, []int64{1, 2, 5}, ids)
}

// eq(dept, "Eng") chained onto eq(dept, "HR") on the same column is itself a
// contradiction (two different bound eq values can never both hold) and must
// also resolve to empty.
func TestScenario_ConflictingEqOnSameColumnIsEmpty(t *testing.T) {
	users := seedUsers(t)

	eng, err := users.Eq("dept", sql.Text("Eng"))
	require.NoError(t, err)
	conflict, err := eng.Eq("dept", sql.Text("HR"))
	require.NoError(t, err)

	_, ok := conflict.(*EmptyTable)
	assert.True(t, ok, "conflicting eq clauses on one column should prove empty, got %T", conflict)
}

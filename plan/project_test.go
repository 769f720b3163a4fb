package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/sql"
)

func TestProject_NarrowsVisibleColumnsOnly(t *testing.T) {
	base := deptTable(t)

	projected, err := base.Project("dept")
	require.NoError(t, err)

	assert.Equal(t, []string{"dept"}, projected.Columns().Names())
	// AllColumns still reports the full underlying schema.
	allNames := projected.AllColumns().Names()
	assert.Contains(t, allNames, "id")
	assert.Contains(t, allNames, "dept")

	ctx := sql.NewEmptyContext()
	it, err := projected.Iterate(ctx)
	require.NoError(t, err)
	defer it.Close(ctx)
	_, row, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, row, 1)
	assert.False(t, row.Get("dept").IsNull())
}

func TestProject_RequestingAbsentColumnErrors(t *testing.T) {
	base := deptTable(t)
	_, err := base.Project("nonexistent")
	assert.Error(t, err)
	assert.True(t, sql.ErrProjectionWiden.Is(err))
}

// A filter chained after a projection can still reach a column that the
// projection dropped, since filtering predicates are evaluated against the
// full row, not the narrowed Columns() view.
func TestProject_FilterAfterProjectionStillSeesDroppedColumn(t *testing.T) {
	base := deptTable(t)
	projected, err := base.Project("dept")
	require.NoError(t, err)

	filtered, err := projected.Eq("id", sql.Int(2))
	require.NoError(t, err)

	ctx := sql.NewEmptyContext()
	n, err := filtered.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// A second .project(...) call validates against the preceding projection's
// narrowed view, so naming a column that projection dropped is rejected.
func TestProject_SecondProjectionCannotWidenBackOut(t *testing.T) {
	base := deptTable(t)
	narrow, err := base.Project("dept")
	require.NoError(t, err)

	_, err = narrow.Project("id", "dept")
	assert.Error(t, err)
	assert.True(t, sql.ErrProjectionWiden.Is(err))
}

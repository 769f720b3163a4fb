package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/memory"
	"github.com/relit/relit/sql"
)

func deptTable(t *testing.T) *BaseTable {
	t.Helper()
	schema := sql.Schema{
		{Name: "id", Type: sql.TypeInt, IndexHint: sql.IndexPrimary},
		{Name: "dept", Type: sql.TypeText},
	}
	storage := memory.NewStorage(schema, sql.DefaultConfig())
	for i, d := range []string{"Eng", "Sales", "Eng", "HR", "Eng"} {
		_, err := storage.Insert(sql.Row{"id": sql.Int(int64(i)), "dept": sql.Text(d)})
		require.NoError(t, err)
	}
	return NewBaseTable("people", storage)
}

func TestAdaptive_RejectsNonBaseTableChild(t *testing.T) {
	base := deptTable(t)
	filtered, err := base.Gte("id", sql.Int(0))
	require.NoError(t, err)

	_, err = NewAdaptive(filtered, "dept")
	assert.Error(t, err)
	assert.True(t, sql.ErrNotBaseTable.Is(err))
}

func TestAdaptive_EqOnOtherColumnPassesThroughToBaseTable(t *testing.T) {
	base := deptTable(t)
	a, err := NewAdaptive(base, "dept")
	require.NoError(t, err)

	result, err := a.Eq("id", sql.Int(2))
	require.NoError(t, err)
	_, isAdaptiveEq := result.(*adaptiveEq)
	assert.False(t, isAdaptiveEq)
}

// Below the row-count and latency thresholds, repeated Eq calls on the
// targeted column keep scanning rather than building an index.
func TestAdaptive_StaysUnbuiltBelowThresholds(t *testing.T) {
	base := deptTable(t)
	a, err := NewAdaptive(base, "dept")
	require.NoError(t, err)

	ctx := sql.NewEmptyContext()
	for i := 0; i < 2; i++ {
		result, err := a.Eq("dept", sql.Text("Eng"))
		require.NoError(t, err)
		n, err := result.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	}
	assert.False(t, a.built)
}

// Once the table's row count reaches AdaptiveMaterializeThreshold, the very
// next Eq call upgrades to the in-memory hash index regardless of timing.
func TestAdaptive_UpgradesOnceRowCountCrossesThreshold(t *testing.T) {
	base := deptTable(t)
	a, err := NewAdaptive(base, "dept")
	require.NoError(t, err)

	cfg := sql.DefaultConfig()
	cfg.AdaptiveMaterializeThreshold = 1
	cfg.AdaptiveMeasureCalls = 1000 // keep the latency path from also firing
	SetConfig(cfg)
	defer SetConfig(sql.DefaultConfig())

	ctx := sql.NewEmptyContext()
	result, err := a.Eq("dept", sql.Text("Eng"))
	require.NoError(t, err)
	n, err := result.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, a.built)

	// Answers from the index must agree with a plain scan.
	result2, err := a.Eq("dept", sql.Text("HR"))
	require.NoError(t, err)
	n2, err := result2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n2)
}

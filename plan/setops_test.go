package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/memory"
	"github.com/relit/relit/sql"
)

func namesTable(t *testing.T, name string, values ...string) *BaseTable {
	t.Helper()
	schema := sql.Schema{{Name: "name", Type: sql.TypeText}}
	storage := memory.NewStorage(schema, sql.DefaultConfig())
	for _, v := range values {
		_, err := storage.Insert(sql.Row{"name": sql.Text(v)})
		require.NoError(t, err)
	}
	return NewBaseTable(name, storage)
}

func names(t *testing.T, tbl sql.Table) []string {
	t.Helper()
	ctx := sql.NewEmptyContext()
	it, err := tbl.Iterate(ctx)
	require.NoError(t, err)
	defer it.Close(ctx)
	var out []string
	for {
		_, row, err := it.Next(ctx)
		if err != nil {
			break
		}
		out = append(out, row.Get("name").Text)
	}
	return out
}

func TestUnion_DeduplicatesAcrossBothSides(t *testing.T) {
	a := namesTable(t, "a", "Ann", "Bo")
	b := namesTable(t, "b", "Bo", "Cy")

	u, err := a.Union(b)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Ann", "Bo", "Cy"}, names(t, u))
}

func TestExcept_RemovesRightSideMembers(t *testing.T) {
	a := namesTable(t, "a", "Ann", "Bo", "Cy")
	b := namesTable(t, "b", "Bo")

	diff, err := a.Except(b)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Ann", "Cy"}, names(t, diff))
}

func TestIntersect_KeepsOnlyCommonMembers(t *testing.T) {
	a := namesTable(t, "a", "Ann", "Bo", "Cy")
	b := namesTable(t, "b", "Bo", "Cy", "Di")

	inter, err := NewIntersect(a, b)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Bo", "Cy"}, names(t, inter))
}

func TestConcat_ColumnCountMismatchRejected(t *testing.T) {
	a := namesTable(t, "a", "Ann")
	wide := sql.Schema{{Name: "name", Type: sql.TypeText}, {Name: "extra", Type: sql.TypeText}}
	storage := memory.NewStorage(wide, sql.DefaultConfig())
	_, err := storage.Insert(sql.Row{"name": sql.Text("Bo"), "extra": sql.Text("x")})
	require.NoError(t, err)
	b := NewBaseTable("b", storage)

	_, err = NewConcat(a, b).Iterate(sql.NewEmptyContext())
	assert.Error(t, err)
}

func TestAlias_RenamesColumnsAndRoundTripsHas(t *testing.T) {
	a := namesTable(t, "people", "Ann")
	aliased, err := a.WithAlias("p", map[string]string{"name": "person_name"})
	require.NoError(t, err)

	cols := aliased.Columns().Names()
	assert.Equal(t, []string{"person_name"}, cols)

	ctx := sql.NewEmptyContext()
	ok, err := aliased.Has(ctx, sql.Row{"person_name": sql.Text("Ann")})
	require.NoError(t, err)
	assert.True(t, ok)
}

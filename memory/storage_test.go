package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/sql"
)

func testSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: sql.TypeInt, IndexHint: sql.IndexPrimary},
		{Name: "dept", Type: sql.TypeText, IndexHint: sql.IndexSecondary},
	}
}

func TestStorage_PrimaryKeyViolation(t *testing.T) {
	s := NewStorage(testSchema(), sql.DefaultConfig())
	_, err := s.Insert(sql.Row{"id": sql.Int(1), "dept": sql.Text("Eng")})
	require.NoError(t, err)
	_, err = s.Insert(sql.Row{"id": sql.Int(1), "dept": sql.Text("Sales")})
	require.Error(t, err)
	assert.True(t, sql.ErrPrimaryKeyViolation.Is(err))
}

func TestStorage_EqLookupUsesIndex(t *testing.T) {
	s := NewStorage(testSchema(), sql.DefaultConfig())
	id1, err := s.Insert(sql.Row{"id": sql.Int(1), "dept": sql.Text("Eng")})
	require.NoError(t, err)
	_, err = s.Insert(sql.Row{"id": sql.Int(2), "dept": sql.Text("Sales")})
	require.NoError(t, err)

	ids, ok, err := s.EqLookup("dept", sql.Text("Eng"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []sql.RowID{id1}, ids)
}

func TestStorage_UpdateReindexesChangedColumn(t *testing.T) {
	s := NewStorage(testSchema(), sql.DefaultConfig())
	id, err := s.Insert(sql.Row{"id": sql.Int(1), "dept": sql.Text("Eng")})
	require.NoError(t, err)

	err = s.Update(id, sql.Row{"dept": sql.Text("Sales")})
	require.NoError(t, err)

	ids, ok, err := s.EqLookup("dept", sql.Text("Eng"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, ids)

	ids, ok, err = s.EqLookup("dept", sql.Text("Sales"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []sql.RowID{id}, ids)
}

func TestStorage_DeleteRemovesFromIndexAndScan(t *testing.T) {
	s := NewStorage(testSchema(), sql.DefaultConfig())
	id, err := s.Insert(sql.Row{"id": sql.Int(1), "dept": sql.Text("Eng")})
	require.NoError(t, err)

	require.NoError(t, s.Delete(id))

	assert.Equal(t, int64(0), s.Count())
	ids, ok, err := s.EqLookup("dept", sql.Text("Eng"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, ids)
}

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relit/relit/memory"
	"github.com/relit/relit/sql"
)

func ordersAndCustomers(t *testing.T) (sql.Table, sql.Table) {
	t.Helper()
	custSchema := sql.Schema{
		{Name: "id", Type: sql.TypeInt, IndexHint: sql.IndexPrimary},
		{Name: "name", Type: sql.TypeText},
	}
	custStorage := memory.NewStorage(custSchema, sql.DefaultConfig())
	for _, r := range []sql.Row{
		{"id": sql.Int(1), "name": sql.Text("Ann")},
		{"id": sql.Int(2), "name": sql.Text("Bo")},
	} {
		_, err := custStorage.Insert(r)
		require.NoError(t, err)
	}

	orderSchema := sql.Schema{
		{Name: "order_id", Type: sql.TypeInt, IndexHint: sql.IndexPrimary},
		{Name: "cust_id", Type: sql.TypeInt, IndexHint: sql.IndexSecondary},
	}
	orderStorage := memory.NewStorage(orderSchema, sql.DefaultConfig())
	for _, r := range []sql.Row{
		{"order_id": sql.Int(100), "cust_id": sql.Int(1)},
		{"order_id": sql.Int(101), "cust_id": sql.Int(1)},
		{"order_id": sql.Int(102), "cust_id": sql.Int(3)}, // no matching customer
	} {
		_, err := orderStorage.Insert(r)
		require.NoError(t, err)
	}

	return NewBaseTable("orders", orderStorage), NewBaseTable("customers", custStorage)
}

func TestInnerJoin_OnlyMatchingRows(t *testing.T) {
	orders, customers := ordersAndCustomers(t)
	joined, err := NewEquiJoin(orders, customers, "cust_id", "id", JoinInner)
	require.NoError(t, err)

	ctx := sql.NewEmptyContext()
	n, err := joined.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n) // orders 100 and 101 match Ann; order 102 has no match
}

func TestLeftJoin_PadsUnmatchedRight(t *testing.T) {
	orders, customers := ordersAndCustomers(t)
	joined, err := NewEquiJoin(orders, customers, "cust_id", "id", JoinLeft)
	require.NoError(t, err)

	ctx := sql.NewEmptyContext()
	n, err := joined.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n) // every order appears, unmatched padded with null

	it, err := joined.Iterate(ctx)
	require.NoError(t, err)
	defer it.Close(ctx)
	var sawUnmatchedNull bool
	for {
		_, row, err := it.Next(ctx)
		if err != nil {
			break
		}
		if row.Get("order_id").Int == 102 {
			assert.True(t, row.Get("name").IsNull())
			sawUnmatchedNull = true
		}
	}
	assert.True(t, sawUnmatchedNull)
}

func TestEquiJoin_ColumnConflictRejected(t *testing.T) {
	orders, customers := ordersAndCustomers(t)
	_, err := NewEquiJoin(orders, customers, "cust_id", "id", JoinInner)
	require.NoError(t, err) // distinct column sets besides the join key, fine

	// Force an actual name collision by joining orders to itself-shaped table.
	dup, err := NewEquiJoin(orders, orders, "order_id", "order_id", JoinInner)
	assert.Error(t, err)
	assert.Nil(t, dup)
}

func TestExists_SemiAndAntiJoin(t *testing.T) {
	orders, customers := ordersAndCustomers(t)

	semi := NewExists(customers, orders, "id", "cust_id", false)
	ctx := sql.NewEmptyContext()
	n, err := semi.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n) // only Ann (cust_id 1) has an order

	anti := NewExists(customers, orders, "id", "cust_id", true)
	n, err = anti.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n) // only Bo has no order
}

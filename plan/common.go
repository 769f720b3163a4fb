package plan

import (
	"io"

	"github.com/relit/relit/sql"
)

// rowEqual compares two rows over exactly the named columns, used by every
// operator's Has() and by Set membership tests (§4.1, §4.8).
func rowEqual(a, b sql.Row, cols []string) bool {
	for _, c := range cols {
		eq, err := sql.Equal(a.Get(c), b.Get(c))
		if err != nil || !eq {
			return false
		}
	}
	return true
}

// drainAll pulls every (id, row) pair out of it, closing it afterward. Every
// operator that must materialize its child to do its job (Sort's full sort,
// Barrier beyond the heap threshold, set operations, hash joins, Exists)
// goes through this.
func drainAll(ctx *sql.Context, t sql.Table) ([]sql.RowID, []sql.Row, error) {
	it, err := t.Iterate(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close(ctx)
	var ids []sql.RowID
	var rows []sql.Row
	for {
		id, row, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		rows = append(rows, row)
	}
	return ids, rows, nil
}

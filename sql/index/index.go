package index

import "github.com/relit/relit/sql"

// Index is the ordered multimap contract of §3.
type Index interface {
	Insert(key []byte, id sql.RowID) error
	Delete(key []byte, id sql.RowID) error
	PointLookup(key []byte) ([]sql.RowID, error)
	// Range returns ids whose packed key falls in [lo, hi] (either bound
	// may be nil, meaning unbounded), in ascending order unless reverse.
	Range(lo, hi []byte, reverse bool) ([]sql.RowID, error)
	Len() int
	Close() error
}

// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sql

import (
	"io"

	uuid "github.com/satori/go.uuid"
)

// RowID is the opaque identifier an engine emits alongside a row within a
// single iteration. Consumers may rely on it only within the lifetime of the
// iterator that produced it (§3 invariant) — it is never stable across
// operators, even though ids are often assigned sequentially from 0.
type RowID uint64

// NewOperatorTag returns an opaque per-clone identity used only for
// diagnostics (GetProperty("__id__")) — never for row identity.
func NewOperatorTag() string {
	return uuid.NewV4().String()
}

// Row is an open record: field-name to scalar, canonicalized to the
// declared column identifier (possibly alias-prefixed) at operator
// construction time so lookups never repeat string processing mid-stream.
type Row map[string]Scalar

// Get returns the value of a named field, or the null scalar if absent.
func (r Row) Get(name string) Scalar {
	if v, ok := r[name]; ok {
		return v
	}
	return Null()
}

// Project returns a new Row containing only the named fields, in no
// particular key order (maps are unordered; column order lives in Schema).
func (r Row) Project(cols []string) Row {
	out := make(Row, len(cols))
	for _, c := range cols {
		out[c] = r.Get(c)
	}
	return out
}

// Clone returns a shallow copy; Scalars are themselves immutable values so a
// shallow copy of the map is a full value copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns the set-union of two rows' field maps (right overrides left
// on key collision); joins use this to combine matched left/right rows.
func Merge(left, right Row) Row {
	out := make(Row, len(left)+len(right))
	for k, v := range left {
		out[k] = v
	}
	for k, v := range right {
		out[k] = v
	}
	return out
}

// RowIter is a lazy, restartable, pull-based row stream. Next returns io.EOF
// (with a nil row) once exhausted, matching the convention the teacher's own
// RowIter implementations use. Close releases any per-iteration resources
// (cursors, temporary indexes) deterministically.
type RowIter interface {
	Next(ctx *Context) (RowID, Row, error)
	Close(ctx *Context) error
}

type sliceRowIter struct {
	ids  []RowID
	rows []Row
	pos  int
}

// RowsToRowIter adapts a materialized slice of rows into a RowIter, assigning
// sequential opaque ids valid only for this iterator's lifetime.
func RowsToRowIter(rows ...Row) RowIter {
	ids := make([]RowID, len(rows))
	for i := range ids {
		ids[i] = RowID(i)
	}
	return &sliceRowIter{ids: ids, rows: rows}
}

// IDRowsToRowIter adapts a slice of rows paired with caller-supplied ids.
func IDRowsToRowIter(ids []RowID, rows []Row) RowIter {
	return &sliceRowIter{ids: ids, rows: rows}
}

func (it *sliceRowIter) Next(ctx *Context) (RowID, Row, error) {
	if it.pos >= len(it.rows) {
		return 0, nil, io.EOF
	}
	id, row := it.ids[it.pos], it.rows[it.pos]
	it.pos++
	return id, row, nil
}

func (it *sliceRowIter) Close(ctx *Context) error { return nil }

// EmptyRowIter is a RowIter that yields no rows.
func EmptyRowIter() RowIter { return &sliceRowIter{} }

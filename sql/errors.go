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

import errors "gopkg.in/src-d/go-errors.v1"

// The error taxonomy of §7, one *errors.Kind per bucket so callers can test
// with ErrXxx.Is(err) exactly as the teacher's own code tests against
// ErrIndexIDAlreadyRegistered and its neighbors.
var (
	// Schema errors: raised at builder time, before any resources are
	// consumed.
	ErrSchema            = errors.NewKind("schema error: %s")
	ErrUnknownColumn      = errors.NewKind("unknown column %q")
	ErrColumnCountMismatch = errors.NewKind("set operation requires matching column count: %d vs %d")
	ErrProjectionWiden    = errors.NewKind("projection of %v cannot widen existing projection %v")
	ErrJoinColumnConflict = errors.NewKind("column %q appears on both sides of the join; use with_alias to disambiguate")

	// Binding errors.
	ErrBinding            = errors.NewKind("binding error: %s")
	ErrUnboundParameters  = errors.NewKind("cannot execute: unbound parameters %v")
	ErrUnknownPlaceholder = errors.NewKind("bind: no placeholder named %q in predicate")
	ErrDuplicateBinding   = errors.NewKind("bind: placeholder %q is already bound")

	// Usage errors.
	ErrUsage              = errors.NewKind("usage error: %s")
	ErrViewNotDerived     = errors.NewKind("update/delete view does not derive from this base table")
	ErrNotBaseTable       = errors.NewKind("adaptive optimizer can only wrap a base table")

	// Type errors.
	ErrType               = errors.NewKind("type error")
	ErrNotComparable      = errors.NewKind("value of kind %d is not comparable with operator %v")
	ErrMalformedHex       = errors.NewKind("malformed hex literal %q")

	// Integrity errors.
	ErrIntegrity          = errors.NewKind("integrity error: %s")
	ErrPrimaryKeyViolation = errors.NewKind("primary key violation on column %q")
	ErrUniqueViolation    = errors.NewKind("unique constraint violation on column %q")
)

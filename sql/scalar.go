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
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Kind tags the variant carried by a Scalar.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindDecimal
	KindText
	KindBinary
	KindDate
	KindTime
	KindDateTime
)

// Scalar is the tagged-union value every Row field holds: null, integer,
// floating, decimal-string, text, binary, date, time, or datetime.
type Scalar struct {
	Kind   Kind
	Int    int64
	Float  float64
	Text   string // also holds the decimal string representation
	Binary []byte
	Time   time.Time
}

func Null() Scalar                  { return Scalar{Kind: KindNull} }
func Int(v int64) Scalar            { return Scalar{Kind: KindInt, Int: v} }
func Float(v float64) Scalar        { return Scalar{Kind: KindFloat, Float: v} }
func Decimal(v string) Scalar       { return Scalar{Kind: KindDecimal, Text: v} }
func Text(v string) Scalar          { return Scalar{Kind: KindText, Text: v} }
func Binary(v []byte) Scalar        { return Scalar{Kind: KindBinary, Binary: v} }
func Date(v time.Time) Scalar       { return Scalar{Kind: KindDate, Time: v} }
func Time(v time.Time) Scalar       { return Scalar{Kind: KindTime, Time: v} }
func DateTime(v time.Time) Scalar   { return Scalar{Kind: KindDateTime, Time: v} }

func (s Scalar) IsNull() bool { return s.Kind == KindNull }

func (s Scalar) IsNumeric() bool {
	return s.Kind == KindInt || s.Kind == KindFloat || s.Kind == KindDecimal
}

// AsFloat coerces a numeric scalar to float64 using spf13/cast so that
// int/float/decimal-string all compare by value (`5 == 5.0`).
func (s Scalar) AsFloat() (float64, error) {
	switch s.Kind {
	case KindInt:
		return float64(s.Int), nil
	case KindFloat:
		return s.Float, nil
	case KindDecimal:
		return cast.ToFloat64E(s.Text)
	default:
		return 0, fmt.Errorf("relit: scalar of kind %d is not numeric", s.Kind)
	}
}

func (s Scalar) String() string {
	switch s.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return fmt.Sprintf("%d", s.Int)
	case KindFloat:
		return fmt.Sprintf("%v", s.Float)
	case KindDecimal, KindText:
		return s.Text
	case KindBinary:
		return fmt.Sprintf("%x", s.Binary)
	default:
		return s.Time.Format(time.RFC3339Nano)
	}
}

// Equal implements the equality rules of the data model: numeric-to-numeric
// uses coerced value equality, text uses byte equality, and null equals only
// null (null==null is true, null against a non-null is false), which is how
// EvalClause makes eq(col, null) an IS NULL test and how `has`/set-membership
// tests match null fields.
func Equal(a, b Scalar) (bool, error) {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull(), nil
	}
	if a.IsNumeric() && b.IsNumeric() {
		af, err := a.AsFloat()
		if err != nil {
			return false, err
		}
		bf, err := b.AsFloat()
		if err != nil {
			return false, err
		}
		return af == bf, nil
	}
	if a.Kind == KindText && b.Kind == KindText {
		return a.Text == b.Text, nil
	}
	if a.Kind == KindBinary && b.Kind == KindBinary {
		return bytes.Equal(a.Binary, b.Binary), nil
	}
	if (a.Kind == KindDate || a.Kind == KindTime || a.Kind == KindDateTime) &&
		a.Kind == b.Kind {
		return a.Time.Equal(b.Time), nil
	}
	return false, fmt.Errorf("relit: %w: cannot compare kind %d to kind %d", ErrType.New(), a.Kind, b.Kind)
}

// Compare implements the ordering rules of §3: numeric by value, text by the
// process locale collator (via CollateText, defined in locale.go so that
// this file stays free of the golang.org/x/text import), binary
// /date/time/datetime by byte-lexicographic order. Null is handled by the
// caller: ordering filters exclude rows whose compared column is null rather
// than calling Compare with a null operand.
func Compare(a, b Scalar) (int, error) {
	if a.IsNull() || b.IsNull() {
		return 0, fmt.Errorf("relit: %w: null is not comparable under ordering operators", ErrType.New())
	}
	if a.IsNumeric() && b.IsNumeric() {
		af, err := a.AsFloat()
		if err != nil {
			return 0, err
		}
		bf, err := b.AsFloat()
		if err != nil {
			return 0, err
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.Kind == KindText && b.Kind == KindText {
		return CollateText(a.Text, b.Text), nil
	}
	if a.Kind == KindBinary && b.Kind == KindBinary {
		return bytes.Compare(a.Binary, b.Binary), nil
	}
	if (a.Kind == KindDate || a.Kind == KindTime || a.Kind == KindDateTime) && a.Kind == b.Kind {
		switch {
		case a.Time.Before(b.Time):
			return -1, nil
		case a.Time.After(b.Time):
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, fmt.Errorf("relit: %w: cannot order kind %d against kind %d", ErrType.New(), a.Kind, b.Kind)
}

// MatchLike implements LIKE semantics: % matches any sequence, _ matches any
// single character, matching is case-insensitive for text, and null never
// matches (callers must check IsNull before invoking MatchLike).
func MatchLike(value, pattern string) bool {
	return likeMatch([]rune(foldCase(value)), []rune(foldCase(pattern)))
}

func foldCase(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}

// likeMatch is a small recursive-descent matcher over the two SQL wildcards;
// correctness over performance since patterns are short and this isn't on
// the index-building path.
func likeMatch(value, pattern []rune) bool {
	if len(pattern) == 0 {
		return len(value) == 0
	}
	switch pattern[0] {
	case '%':
		if likeMatch(value, pattern[1:]) {
			return true
		}
		for i := 0; i < len(value); i++ {
			if likeMatch(value[i+1:], pattern[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(value) == 0 {
			return false
		}
		return likeMatch(value[1:], pattern[1:])
	default:
		if len(value) == 0 || value[0] != pattern[0] {
			return false
		}
		return likeMatch(value[1:], pattern[1:])
	}
}

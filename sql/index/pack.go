// Package index implements the ordered multimap of §3: packed binary keys
// sorted byte-equivalent to semantic order, backed by an in-memory balanced
// tree below a size threshold and handed off to a temporary embedded store
// above it.
package index

import (
	"encoding/binary"
	"math"
)

// PackInt encodes a signed 64-bit integer so that byte-sort order matches
// numeric order: two's complement with the sign bit flipped.
func PackInt(v int64) []byte {
	u := uint64(v) ^ (1 << 63)
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, u)
	return b
}

// PackFloat encodes an IEEE-754 float64 using the standard total-order
// trick: toggle the sign bit for positive numbers, invert all bits for
// negative numbers, so byte-sort order matches numeric order including
// across the positive/negative boundary.
func PackFloat(v float64) []byte {
	bits := math.Float64bits(v)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, bits)
	return b
}

// PackText returns the raw bytes of the collated sort key; callers pass the
// output of sql.CollationKey, this function exists only so the index
// package's packing API is uniform across all scalar kinds.
func PackText(collationKey []byte) []byte {
	out := make([]byte, len(collationKey))
	copy(out, collationKey)
	return out
}

// PackBinary is the identity packing: binary/date/time/datetime sort
// byte-lexicographically already.
func PackBinary(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// PackComposite concatenates length-prefixed packed fields into one key. The
// length-prefixed framing suits point lookups only: unlike the packing
// above, it does not preserve sort order for range scans.
func PackComposite(fields ...[]byte) []byte {
	out := make([]byte, 0, 4*len(fields))
	var lenBuf [4]byte
	for _, f := range fields {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(f)))
		out = append(out, lenBuf[:]...)
		out = append(out, f...)
	}
	return out
}

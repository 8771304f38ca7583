// Package binrecord implements BinaryRecord: a compact, order-preserving
// byte encoding of a tuple of typed key fields. BinaryRecords are the
// currency of partition keys and row keys throughout the column store —
// the partition chunk index compares them to find chunks whose key
// interval intersects a query range, and the predicate compiler encodes
// filter values into them to build scan plan bounds.
package binrecord

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"columnstore/internal/keytype"
)

// EncodingError reports that a tuple of values could not be encoded against
// a declared key-type layout: wrong arity, or a value whose runtime type
// doesn't match its KeyType.
type EncodingError struct {
	Layout []keytype.Code
	Values []any
	Cause  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %d value(s) against %d-field layout: %v", len(e.Values), len(e.Layout), e.Cause)
}

func (e *EncodingError) Unwrap() error { return e.Cause }

// Record is an immutable, self-contained byte sequence encoding an ordered
// tuple of typed key fields. Equality is byte equality; ordering is
// lexicographic over the encoded bytes, which matches the projection's
// declared field order by construction: each field is encoded so that its
// byte-lexicographic order equals its typed order (big-endian
// order-preserving for fixed-width numerics, length-prefixed lexicographic
// for strings).
type Record []byte

// Encode builds a Record from values against the given key-type layout.
// len(values) must equal len(layout); values[i] must be a value acceptable
// to keytype.ParseSingleValue(layout[i], values[i]) — callers that already
// hold typed Go values (int32, int64, string) may pass them directly since
// ParseSingleValue passes those through unchanged.
func Encode(layout []keytype.Code, values []any) (Record, error) {
	if len(values) != len(layout) {
		return nil, &EncodingError{Layout: layout, Values: values, Cause: fmt.Errorf("arity mismatch: %d fields declared, %d values given", len(layout), len(values))}
	}

	var buf bytes.Buffer
	for i, t := range layout {
		v, err := keytype.ParseSingleValue(t, values[i])
		if err != nil {
			return nil, &EncodingError{Layout: layout, Values: values, Cause: err}
		}
		if err := encodeField(&buf, t, v); err != nil {
			return nil, &EncodingError{Layout: layout, Values: values, Cause: err}
		}
	}
	return buf.Bytes(), nil
}

func encodeField(buf *bytes.Buffer, t keytype.Code, v any) error {
	switch t {
	case keytype.Int:
		return binary.Write(buf, binary.BigEndian, flipSignInt32(v.(int32)))
	case keytype.Long, keytype.Timestamp:
		return binary.Write(buf, binary.BigEndian, flipSignInt64(v.(int64)))
	case keytype.String:
		s := v.(string)
		if len(s) > 0xFFFF {
			return fmt.Errorf("string field too long: %d bytes", len(s))
		}
		if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
			return err
		}
		buf.WriteString(s)
		return nil
	default:
		return fmt.Errorf("unknown key type code %d", t)
	}
}

// Decode reverses Encode: it splits a Record back into its typed field
// values against the declared layout. Decode is used where a Record
// arrives from outside the encoding call site — e.g. a partition key
// handed back by a backend's split enumerator — and must be inspected
// field by field, such as the predicate compiler's residual check.
func Decode(layout []keytype.Code, r Record) ([]any, error) {
	buf := bytes.NewReader(r)
	values := make([]any, len(layout))
	for i, t := range layout {
		v, err := decodeField(buf, t)
		if err != nil {
			return nil, fmt.Errorf("decode field %d (%s): %w", i, t, err)
		}
		values[i] = v
	}
	return values, nil
}

func decodeField(buf *bytes.Reader, t keytype.Code) (any, error) {
	switch t {
	case keytype.Int:
		var u uint32
		if err := binary.Read(buf, binary.BigEndian, &u); err != nil {
			return nil, err
		}
		return int32(u ^ 0x8000_0000), nil
	case keytype.Long, keytype.Timestamp:
		var u uint64
		if err := binary.Read(buf, binary.BigEndian, &u); err != nil {
			return nil, err
		}
		return int64(u ^ 0x8000_0000_0000_0000), nil
	case keytype.String:
		var length uint16
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		s := make([]byte, length)
		if _, err := buf.Read(s); err != nil {
			return nil, err
		}
		return string(s), nil
	default:
		return nil, fmt.Errorf("unknown key type code %d", t)
	}
}

// flipSignInt32/flipSignInt64 convert a signed integer into an unsigned
// representation whose big-endian byte order matches numeric order: XOR
// the sign bit so that the most negative value maps to all-zero bytes and
// the most positive to all-one bytes. This is the standard order-preserving
// encoding for two's-complement integers.
func flipSignInt32(v int32) uint32 {
	return uint32(v) ^ 0x8000_0000
}

func flipSignInt64(v int64) uint64 {
	return uint64(v) ^ 0x8000_0000_0000_0000
}

// Compare returns Less/Equal/Greater comparing two Records byte-wise, which
// by construction equals comparing their decoded tuples field by field in
// declared order.
func Compare(a, b Record) keytype.Order {
	switch c := bytes.Compare(a, b); {
	case c < 0:
		return keytype.Less
	case c > 0:
		return keytype.Greater
	default:
		return keytype.Equal
	}
}

// Less reports whether a sorts strictly before b. Convenience wrapper
// around Compare for use as a btree.Less / sort.Slice comparator.
func Less(a, b Record) bool {
	return bytes.Compare(a, b) < 0
}

// ParseSingleValue parses a single raw value against a KeyType — re-exported
// from keytype for callers that only import binrecord.
func ParseSingleValue(t keytype.Code, raw any) (any, error) {
	return keytype.ParseSingleValue(t, raw)
}

// ParseValues parses a set of raw values against a KeyType — re-exported
// from keytype for callers that only import binrecord.
func ParseValues(t keytype.Code, raws []any) ([]any, error) {
	return keytype.ParseValues(t, raws)
}

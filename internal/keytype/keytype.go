// Package keytype is the process-wide registry of key column encodings.
//
// A KeyType tags how a single field of a partition-key or row-key tuple is
// parsed, compared, and ordered. The registry is immutable once the package
// is loaded: there is no runtime registration of new types, matching the
// data model's "process-wide registry; immutable" note for KeyType.
package keytype

import (
	"fmt"
	"strconv"
	"time"
)

// Code identifies a field's encoding.
type Code int

const (
	// Int is a 32-bit signed integer, big-endian order-preserving encoded.
	Int Code = iota
	// Long is a 64-bit signed integer, big-endian order-preserving encoded.
	Long
	// String is a UTF-8 string, length-prefixed and lexicographically ordered.
	String
	// Timestamp is a time.Time truncated to millisecond precision, encoded
	// like Long (big-endian Unix milliseconds).
	Timestamp
)

func (c Code) String() string {
	switch c {
	case Int:
		return "int"
	case Long:
		return "long"
	case String:
		return "string"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("keytype(%d)", int(c))
	}
}

// KeyParseError reports that a raw value could not be parsed as the
// declared KeyType.
type KeyParseError struct {
	Type  Code
	Value any
	Cause error
}

func (e *KeyParseError) Error() string {
	return fmt.Sprintf("parse %v as %s: %v", e.Value, e.Type, e.Cause)
}

func (e *KeyParseError) Unwrap() error { return e.Cause }

// Order is the result of comparing two key values.
type Order int

const (
	Less Order = iota - 1
	Equal
	Greater
)

// ParseSingleValue converts a raw value (typically a string from a filter
// expression) into the Go type the KeyType expects: int32 for Int, int64
// for Long and Timestamp (as Unix milliseconds), string for String.
//
// The "raw" parameter accepts either the already-typed Go value (passed
// through unchanged after a type check) or a string to be parsed, since
// filter expressions in practice arrive as strings from a query surface
// but programmatic callers may already hold typed values.
func ParseSingleValue(t Code, raw any) (any, error) {
	switch t {
	case Int:
		return parseInt(raw)
	case Long:
		return parseLong(raw)
	case String:
		return parseString(raw)
	case Timestamp:
		return parseTimestamp(raw)
	default:
		return nil, &KeyParseError{Type: t, Value: raw, Cause: fmt.Errorf("unknown key type code %d", t)}
	}
}

// ParseValues parses a set of raw values, preserving input order, as used
// by the predicate compiler's In() filter pushdown.
func ParseValues(t Code, raws []any) ([]any, error) {
	out := make([]any, len(raws))
	for i, r := range raws {
		v, err := ParseSingleValue(t, r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseInt(raw any) (any, error) {
	switch v := raw.(type) {
	case int32:
		return v, nil
	case int:
		return int32(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, &KeyParseError{Type: Int, Value: raw, Cause: err}
		}
		return int32(n), nil
	default:
		return nil, &KeyParseError{Type: Int, Value: raw, Cause: fmt.Errorf("unsupported value type %T", raw)}
	}
}

func parseLong(raw any) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &KeyParseError{Type: Long, Value: raw, Cause: err}
		}
		return n, nil
	default:
		return nil, &KeyParseError{Type: Long, Value: raw, Cause: fmt.Errorf("unsupported value type %T", raw)}
	}
}

func parseString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	default:
		return nil, &KeyParseError{Type: String, Value: raw, Cause: fmt.Errorf("unsupported value type %T", raw)}
	}
}

func parseTimestamp(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.UnixMilli(), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		// Accept either epoch milliseconds or RFC3339.
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, &KeyParseError{Type: Timestamp, Value: raw, Cause: err}
		}
		return ts.UnixMilli(), nil
	default:
		return nil, &KeyParseError{Type: Timestamp, Value: raw, Cause: fmt.Errorf("unsupported value type %T", raw)}
	}
}

// Compare orders two already-parsed values of the same KeyType.
// Comparing values of different underlying Go types (a parse bug upstream)
// panics rather than silently returning a wrong order.
func Compare(t Code, a, b any) Order {
	switch t {
	case Int:
		return compareInt32(a.(int32), b.(int32))
	case Long, Timestamp:
		return compareInt64(a.(int64), b.(int64))
	case String:
		return compareString(a.(string), b.(string))
	default:
		panic(fmt.Sprintf("keytype: unknown code %d", t))
	}
}

func compareInt32(a, b int32) Order {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func compareInt64(a, b int64) Order {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func compareString(a, b string) Order {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

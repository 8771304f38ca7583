// Package scanplan implements the predicate compiler: it turns a flat list
// of column filters into a concrete scan plan — which partitions to read,
// and which row-key range of each partition's chunks to read.
package scanplan

import "fmt"

// FilterOp is one of the closed set of comparison operators the compiler
// understands.
type FilterOp int

const (
	EqualTo FilterOp = iota
	In
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
)

func (op FilterOp) String() string {
	switch op {
	case EqualTo:
		return "="
	case In:
		return "in"
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Filter is a single predicate on one column. Value holds the comparand for
// EqualTo/GreaterThan/GreaterThanOrEqual/LessThan/LessThanOrEqual; Values
// holds the comparand set for In.
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
	Values []any
}

func (f Filter) String() string {
	if f.Op == In {
		return fmt.Sprintf("%s in %v", f.Column, f.Values)
	}
	return fmt.Sprintf("%s %s %v", f.Column, f.Op, f.Value)
}

// UnsupportedFilterError reports a filter shape the compiler cannot push
// down onto a partition-key column, and therefore cannot fold into a
// residual predicate either. It is fatal to the query.
type UnsupportedFilterError struct {
	Filter Filter
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("scanplan: unsupported filter on partition column: %s", e.Filter)
}

func groupByColumn(filters []Filter) map[string][]Filter {
	grouped := make(map[string][]Filter, len(filters))
	for _, f := range filters {
		grouped[f.Column] = append(grouped[f.Column], f)
	}
	return grouped
}

// Package projection defines RichProjection: the schema view a query or
// ingest operation uses to interpret a dataset's columns as partition-key,
// row-key, or plain data columns.
package projection

import (
	"fmt"

	"columnstore/internal/binrecord"
	"columnstore/internal/keytype"
)

// ColumnDef describes one column's name and key encoding.
type ColumnDef struct {
	Name string
	Type keytype.Code
}

// DatasetRef names the dataset a projection was built for.
type DatasetRef struct {
	Name string
}

// RichProjection is the ordered schema view used by a query: the
// partition-key columns, the row-key columns, and the remaining data
// columns, all resolved from a dataset's schema. It is immutable for the
// life of a query.
type RichProjection struct {
	Dataset      DatasetRef
	PartitionKey []ColumnDef // ordered partition-key columns
	RowKey       []ColumnDef // ordered row-key columns
	DataColumns  []ColumnDef // remaining data columns
}

// NewRichProjection builds a RichProjection from a dataset reference and its
// full column schema, given the declared ordered names of the partition-key
// and row-key columns. Every name in partitionKeyCols and rowKeyCols must
// be present in schema; the remaining (non-key) names in allColumns become
// DataColumns, in allColumns' order, and must also be present in schema.
// Schema columns not named in allColumns are left out of DataColumns.
func NewRichProjection(dataset DatasetRef, schema map[string]keytype.Code, allColumns []string, partitionKeyCols, rowKeyCols []string) (*RichProjection, error) {
	p := &RichProjection{Dataset: dataset}

	keyed := make(map[string]struct{}, len(partitionKeyCols)+len(rowKeyCols))

	for _, name := range partitionKeyCols {
		t, ok := schema[name]
		if !ok {
			return nil, fmt.Errorf("partition-key column %q not defined in schema", name)
		}
		p.PartitionKey = append(p.PartitionKey, ColumnDef{Name: name, Type: t})
		keyed[name] = struct{}{}
	}
	for _, name := range rowKeyCols {
		t, ok := schema[name]
		if !ok {
			return nil, fmt.Errorf("row-key column %q not defined in schema", name)
		}
		p.RowKey = append(p.RowKey, ColumnDef{Name: name, Type: t})
		keyed[name] = struct{}{}
	}
	for _, name := range allColumns {
		if _, isKey := keyed[name]; isKey {
			continue
		}
		t, ok := schema[name]
		if !ok {
			return nil, fmt.Errorf("data column %q not defined in schema", name)
		}
		p.DataColumns = append(p.DataColumns, ColumnDef{Name: name, Type: t})
	}

	return p, nil
}

// PartitionKeyLayout returns the KeyType sequence for the partition-key
// columns, in declared order — the layout binrecord.Encode expects.
func (p *RichProjection) PartitionKeyLayout() []keytype.Code {
	return layoutOf(p.PartitionKey)
}

// RowKeyLayout returns the KeyType sequence for the row-key columns, in
// declared order.
func (p *RichProjection) RowKeyLayout() []keytype.Code {
	return layoutOf(p.RowKey)
}

func layoutOf(cols []ColumnDef) []keytype.Code {
	out := make([]keytype.Code, len(cols))
	for i, c := range cols {
		out[i] = c.Type
	}
	return out
}

// PartitionColumnPosition returns the declared position of a partition-key
// column name, or -1 if it is not a partition-key column.
func (p *RichProjection) PartitionColumnPosition(name string) int {
	for i, c := range p.PartitionKey {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// RowKeyColumnPosition returns the declared position of a row-key column
// name, or -1 if it is not a row-key column.
func (p *RichProjection) RowKeyColumnPosition(name string) int {
	for i, c := range p.RowKey {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// EncodePartitionKey encodes a full tuple of partition-key values (in
// declared column order) into a BinaryRecord.
func (p *RichProjection) EncodePartitionKey(values []any) (binrecord.Record, error) {
	return binrecord.Encode(p.PartitionKeyLayout(), values)
}

// EncodeRowKeyPrefix encodes a prefix tuple of row-key values (positions
// 0..len(values)-1) into a BinaryRecord, used by the predicate compiler to
// build first_key/last_key bounds from a row-key prefix.
func (p *RichProjection) EncodeRowKeyPrefix(values []any) (binrecord.Record, error) {
	layout := p.RowKeyLayout()
	if len(values) > len(layout) {
		return nil, fmt.Errorf("row-key prefix has %d values, but only %d row-key columns declared", len(values), len(layout))
	}
	return binrecord.Encode(layout[:len(values)], values)
}

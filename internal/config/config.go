// Package config provides configuration persistence for the column store.
//
// Store persists and reloads the desired system configuration across
// restarts. This is control-plane state, not data-plane state: it never
// sits on the ingest or query hot path, and Load/Save must not block
// ingestion or scan planning.
package config

import (
	"context"
	"errors"
	"fmt"

	"columnstore/internal/keytype"
	"columnstore/internal/projection"
)

// DefaultInqueryPartitionsLimit is used when a Config's InqueryPartitionsLimit
// is zero, i.e. when none has been explicitly configured.
const DefaultInqueryPartitionsLimit = 64

// ErrInvalidLimit is returned when InqueryPartitionsLimit is configured as
// negative. Zero is accepted and selects DefaultInqueryPartitionsLimit.
var ErrInvalidLimit = errors.New("columnstore.inquery-partitions-limit must be positive")

// Store persists and loads column store configuration.
type Store interface {
	// Load reads the configuration. Returns nil config if none exists.
	Load(ctx context.Context) (*Config, error)

	// Save persists the configuration.
	Save(ctx context.Context, cfg *Config) error
}

// Config describes the desired shape of the column store's predicate
// compiler and ingesters. It is declarative: it defines what should exist,
// not how to create it.
type Config struct {
	// InqueryPartitionsLimit is the recognized configuration key
	// "columnstore.inquery-partitions-limit": the cap on the number of
	// partition-key combinations the predicate compiler will enumerate
	// into a Multi scan plan before degrading to Filtered.
	InqueryPartitionsLimit int

	// Datasets describes the schema-bearing datasets the ingester
	// controller and predicate compiler resolve projections against.
	Datasets []DatasetConfig
}

// DatasetConfig describes a dataset to register: its full column schema,
// its partition-key and row-key column layout, plus type-specific
// parameters kept in a free-form map so backends can carry extra settings
// without a schema change.
type DatasetConfig struct {
	// Name uniquely identifies the dataset.
	Name string

	// Columns is the dataset's full column schema, keyed by column name.
	// Every name in PartitionKeyColumns and RowKeyColumns must appear
	// here.
	Columns map[string]ColumnType

	// PartitionKeyColumns are the ordered partition-key column names.
	PartitionKeyColumns []string

	// RowKeyColumns are the ordered row-key column names.
	RowKeyColumns []string

	// Params contains type-specific configuration (e.g. ingest tuning
	// overrides per column).
	Params map[string]string
}

// ColumnType is the on-disk spelling of a keytype.Code, used so config
// files can name column types as plain strings ("int", "long", "string",
// "timestamp") rather than encoding an enum.
type ColumnType string

const (
	ColumnInt       ColumnType = "int"
	ColumnLong      ColumnType = "long"
	ColumnString    ColumnType = "string"
	ColumnTimestamp ColumnType = "timestamp"
)

func (t ColumnType) KeyTypeCode() (keytype.Code, error) {
	switch t {
	case ColumnInt:
		return keytype.Int, nil
	case ColumnLong:
		return keytype.Long, nil
	case ColumnString:
		return keytype.String, nil
	case ColumnTimestamp:
		return keytype.Timestamp, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", t)
	}
}

// ToProjection builds a *projection.RichProjection from this dataset's
// declared schema and key layout. allColumns fixes the iteration order of
// the resulting DataColumns; columns not present in Columns are rejected
// by projection.NewRichProjection.
func (ds *DatasetConfig) ToProjection(allColumns []string) (*projection.RichProjection, error) {
	schema := make(map[string]keytype.Code, len(ds.Columns))
	for name, t := range ds.Columns {
		code, err := t.KeyTypeCode()
		if err != nil {
			return nil, fmt.Errorf("dataset %q: column %q: %w", ds.Name, name, err)
		}
		schema[name] = code
	}
	return projection.NewRichProjection(projection.DatasetRef{Name: ds.Name}, schema, allColumns, ds.PartitionKeyColumns, ds.RowKeyColumns)
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.InqueryPartitionsLimit < 0 {
		return ErrInvalidLimit
	}
	seen := make(map[string]struct{}, len(c.Datasets))
	for _, ds := range c.Datasets {
		if ds.Name == "" {
			return errors.New("dataset config missing name")
		}
		if _, dup := seen[ds.Name]; dup {
			return fmt.Errorf("duplicate dataset %q", ds.Name)
		}
		seen[ds.Name] = struct{}{}
		if len(ds.Columns) == 0 {
			return fmt.Errorf("dataset %q: no columns declared", ds.Name)
		}
		if len(ds.PartitionKeyColumns) == 0 {
			return fmt.Errorf("dataset %q: no partition-key columns", ds.Name)
		}
		if len(ds.RowKeyColumns) == 0 {
			return fmt.Errorf("dataset %q: no row-key columns", ds.Name)
		}
		for _, name := range append(append([]string{}, ds.PartitionKeyColumns...), ds.RowKeyColumns...) {
			if _, ok := ds.Columns[name]; !ok {
				return fmt.Errorf("dataset %q: key column %q not declared in Columns", ds.Name, name)
			}
		}
	}
	return nil
}

// EffectiveInqueryPartitionsLimit returns cfg.InqueryPartitionsLimit, or
// DefaultInqueryPartitionsLimit if cfg is nil or the field is zero.
func EffectiveInqueryPartitionsLimit(cfg *Config) int {
	if cfg == nil || cfg.InqueryPartitionsLimit == 0 {
		return DefaultInqueryPartitionsLimit
	}
	return cfg.InqueryPartitionsLimit
}

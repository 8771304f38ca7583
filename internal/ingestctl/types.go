// Package ingestctl implements the ingester controller: a per-partition
// actor that validates a requested (dataset, partition, columns) triple
// against the metadata store, then accepts chunked columnar writes,
// forwards them to a writer, and acknowledges durable acceptance.
package ingestctl

import (
	"errors"
	"fmt"

	"columnstore/internal/keytype"
)

// ErrNotFound is returned by MetadataStore lookups for a dataset or
// partition that doesn't exist.
var ErrNotFound = errors.New("ingestctl: not found")

// ColumnDef names one column of a dataset's schema.
type ColumnDef struct {
	Name string
	Type keytype.Code
}

// Dataset is the metadata store's view of a dataset's defined columns.
type Dataset struct {
	Name    string
	Columns map[string]ColumnDef
}

// ShardEntry records one accepted write's row range, as kept in a
// partition's ShardVersions map.
type ShardEntry struct {
	Version    int32
	FirstRowID int64
	LastRowID  int64
	AckRowID   int64
}

// PartitionRecord is the metadata store's bookkeeping for one partition.
type PartitionRecord struct {
	Dataset       string
	Partition     string
	ShardVersions map[int32]ShardEntry
}

// State is the controller's lifecycle state.
type State int

const (
	Initializing State = iota
	Rejected
	Ready
	Stopped
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Rejected:
		return "rejected"
	case Ready:
		return "ready"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventKind tags which variant of Event is populated.
type EventKind int

const (
	// NoDatasetColumns: the dataset is missing or has no defined columns.
	NoDatasetColumns EventKind = iota
	// PartitionNotFound: the requested partition doesn't exist.
	PartitionNotFound
	// UndefinedColumns: one or more requested columns aren't in the schema.
	UndefinedColumns
	// GoodToGo: startup validation passed; the controller is Ready.
	GoodToGo
	// Ack: a chunk was accepted, written, and durably recorded.
	Ack
	// ShardingError: a chunk was rejected or failed to write.
	ShardingError
)

func (k EventKind) String() string {
	switch k {
	case NoDatasetColumns:
		return "no_dataset_columns"
	case PartitionNotFound:
		return "partition_not_found"
	case UndefinedColumns:
		return "undefined_columns"
	case GoodToGo:
		return "good_to_go"
	case Ack:
		return "ack"
	case ShardingError:
		return "sharding_error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is the controller's outbound message vocabulary.
type Event struct {
	Kind      EventKind
	Dataset   string
	Partition string
	Missing   []string // UndefinedColumns
	RowID     int64    // Ack, ShardingError: the acknowledged/attempted row id
}

// ChunkedColumns is the controller's inbound write message: one
// version-tagged batch of column buffers covering [FirstRowID, LastRowID],
// acknowledged up to AckRowID once durably written.
type ChunkedColumns struct {
	Version    int32
	FirstRowID int64
	LastRowID  int64
	AckRowID   int64
	Columns    map[string][]byte
}

package scanplan

import "columnstore/internal/binrecord"

// PartitionScanKind tags which variant of PartitionScanMethod is populated.
type PartitionScanKind int

const (
	// Single reads exactly one partition, identified by Key.
	Single PartitionScanKind = iota
	// Multi reads the enumerated partitions in Keys, in order.
	Multi
	// Filtered asks the backend for scan splits and applies Residual to
	// each candidate partition key, reading the survivors.
	Filtered
)

func (k PartitionScanKind) String() string {
	switch k {
	case Single:
		return "single"
	case Multi:
		return "multi"
	case Filtered:
		return "filtered"
	default:
		return "unknown"
	}
}

// ResidualPredicate decides whether a candidate partition key survives a
// Filtered scan. The executor applies it to each partition key returned by
// the backend's split enumerator.
type ResidualPredicate func(partitionKey binrecord.Record) bool

// PartitionScanMethod selects which partitions a query reads.
type PartitionScanMethod struct {
	Kind     PartitionScanKind
	Key      binrecord.Record   // Single
	Keys     []binrecord.Record // Multi
	Residual ResidualPredicate  // Filtered; nil means "every candidate survives"
}

// ChunkScanKind tags which variant of ChunkScanMethod is populated.
type ChunkScanKind int

const (
	// All scans every chunk of the selected partition(s).
	All ChunkScanKind = iota
	// RowKeyRange scans only chunks whose key interval intersects
	// [First, Last].
	RowKeyRange
)

func (k ChunkScanKind) String() string {
	switch k {
	case All:
		return "all"
	case RowKeyRange:
		return "row_key_range"
	default:
		return "unknown"
	}
}

// ChunkScanMethod selects which chunks of a partition a query reads.
type ChunkScanMethod struct {
	Kind  ChunkScanKind
	First binrecord.Record
	Last  binrecord.Record
}

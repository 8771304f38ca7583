package ingestctl

import "context"

// MetadataStore is the subset of the metadata store the controller
// consumes: dataset/schema/partition lookups at startup, and shard
// bookkeeping updates after each accepted write.
type MetadataStore interface {
	// GetDataset returns the named dataset, or ErrNotFound.
	GetDataset(ctx context.Context, dataset string) (Dataset, error)
	// GetPartition returns the named partition's record, or ErrNotFound.
	GetPartition(ctx context.Context, dataset, partition string) (PartitionRecord, error)
	// UpdatePartitionShards appends entry to the partition's ShardVersions
	// map. It must be atomic with respect to concurrent GetPartition calls:
	// a failed write must never be observable as a partial update.
	UpdatePartitionShards(ctx context.Context, dataset, partition string, entry ShardEntry) error
}

// Writer persists a chunk's column buffers. It is the controller's
// suspension point for column data; shard bookkeeping goes through
// MetadataStore.UpdatePartitionShards after a successful Write.
type Writer interface {
	Write(ctx context.Context, dataset, partition string, chunk ChunkedColumns) error
}

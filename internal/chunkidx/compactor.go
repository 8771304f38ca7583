package chunkidx

import (
	"context"

	"columnstore/internal/chunk"
)

// Compactor is satisfied by a backend column store that can physically
// merge superseded chunks away. A ChunkSetInfo is logically retired from
// an Index as soon as every row it holds is covered by skips recorded
// against it elsewhere, but it is only destroyed once Compact has run:
// the index and the backend agree on chunk lifetime through this seam
// rather than the index ever deleting entries itself.
type Compactor interface {
	// Compact merges supersededIDs out of partition's physical storage.
	// The caller is responsible for removing any index entries referring
	// to supersededIDs only after Compact returns successfully.
	Compact(ctx context.Context, partition string, supersededIDs []chunk.ID) error
}

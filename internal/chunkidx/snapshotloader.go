package chunkidx

import (
	"context"
	"fmt"
)

// SnapshotStore persists and retrieves encoded partition chunk index
// snapshots, keyed by (dataset, partition, variant).
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, dataset, partition string, variant Variant) (data []byte, ok bool, err error)
	SaveSnapshot(ctx context.Context, dataset, partition string, variant Variant, data []byte) error
}

// SnapshotLoader wraps a backend Loader with a SnapshotStore: a cache miss
// first checks the snapshot store, and only falls through to the backend
// loader when no snapshot is present. A successful backend load is
// persisted back to the snapshot store before it is handed to the caller,
// so the next cold start rebuilds from the stored snapshot instead of
// re-scanning the backend's chunk metadata from scratch.
type SnapshotLoader struct {
	backend Loader
	store   SnapshotStore
}

// NewSnapshotLoader builds a SnapshotLoader over backend and store.
func NewSnapshotLoader(backend Loader, store SnapshotStore) *SnapshotLoader {
	return &SnapshotLoader{backend: backend, store: store}
}

func (l *SnapshotLoader) LoadPartitionIndex(ctx context.Context, dataset, partition string, variant Variant) (Index, error) {
	data, ok, err := l.store.LoadSnapshot(ctx, dataset, partition, variant)
	if err != nil {
		return nil, fmt.Errorf("chunkidx: loading snapshot for %s/%s: %w", dataset, partition, err)
	}
	if ok {
		idx, err := LoadIndexFromSnapshot(variant, data)
		if err != nil {
			return nil, fmt.Errorf("chunkidx: replaying snapshot for %s/%s: %w", dataset, partition, err)
		}
		return idx, nil
	}

	idx, err := l.backend.LoadPartitionIndex(ctx, dataset, partition, variant)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for e := range idx.AllChunks() {
		entries = append(entries, e)
	}
	snap, err := EncodeSnapshot(entries)
	if err != nil {
		return nil, fmt.Errorf("chunkidx: encoding snapshot for %s/%s: %w", dataset, partition, err)
	}
	if err := l.store.SaveSnapshot(ctx, dataset, partition, variant, snap); err != nil {
		return nil, fmt.Errorf("chunkidx: saving snapshot for %s/%s: %w", dataset, partition, err)
	}
	return idx, nil
}

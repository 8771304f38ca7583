package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"columnstore/internal/binrecord"
	"columnstore/internal/chunk"
	"columnstore/internal/chunkidx"
	"columnstore/internal/config"
	"columnstore/internal/executor"
	"columnstore/internal/ingestctl"
	"columnstore/internal/keytype"
)

// demoSnapshotStore is a trivial in-memory chunkidx.SnapshotStore backing
// the "plan" subcommand's chunkidx.SnapshotLoader. It lives only as long as
// one plan invocation: each backend load of a partition saves a snapshot
// here, but every invocation starts with an empty store, so snapshots are
// not carried over from one plan run to the next.
type demoSnapshotStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newDemoSnapshotStore() *demoSnapshotStore {
	return &demoSnapshotStore{data: make(map[string][]byte)}
}

func (s *demoSnapshotStore) key(dataset, partition string, variant chunkidx.Variant) string {
	return fmt.Sprintf("%s\x00%d", partitionKey(dataset, partition), variant)
}

func (s *demoSnapshotStore) LoadSnapshot(_ context.Context, dataset, partition string, variant chunkidx.Variant) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[s.key(dataset, partition, variant)]
	return data, ok, nil
}

func (s *demoSnapshotStore) SaveSnapshot(_ context.Context, dataset, partition string, variant chunkidx.Variant, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(dataset, partition, variant)] = data
	return nil
}

// demoAllColumns fixes the projection's DataColumns iteration order for the
// demo "gdelt"-shaped dataset used by both CLI subcommands.
var demoAllColumns = []string{"actor1Code", "actor2Code", "year", "month", "sqlDate"}

// demoPartitions lists the actor1Code values the "plan" subcommand's
// executor fan-out demonstrates against.
var demoPartitions = []string{"USA", "RUS", "FRA"}

// demoPartitionIndexLoader seeds a couple of fabricated chunks per
// partition on first touch, so "columnstore plan" has something for
// internal/executor to resolve without a real backend.
type demoPartitionIndexLoader struct{}

func (demoPartitionIndexLoader) LoadPartitionIndex(_ context.Context, _, _ string, variant chunkidx.Variant) (chunkidx.Index, error) {
	idx := chunkidx.NewIndex(variant)
	bounds := [][2]int64{{0, 999}, {1000, 1999}}
	for _, b := range bounds {
		first, err := binrecord.Encode([]keytype.Code{keytype.Long}, []any{b[0]})
		if err != nil {
			return nil, err
		}
		last, err := binrecord.Encode([]keytype.Code{keytype.Long}, []any{b[1]})
		if err != nil {
			return nil, err
		}
		info := chunkidx.ChunkSetInfo{ChunkID: chunk.New(), NumRows: 1000, FirstKey: first, LastKey: last}
		if err := idx.Add(info, nil); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// demoSplitEnumerator reports demoPartitions' encoded actor1Code keys as
// the candidate splits for a Filtered scan.
type demoSplitEnumerator struct{}

func (demoSplitEnumerator) Splits(context.Context, string) ([]binrecord.Record, error) {
	splits := make([]binrecord.Record, 0, len(demoPartitions))
	for _, p := range demoPartitions {
		key, err := binrecord.Encode([]keytype.Code{keytype.String}, []any{p})
		if err != nil {
			return nil, err
		}
		splits = append(splits, key)
	}
	return splits, nil
}

// demoDataset describes the single hardcoded dataset the CLI demonstrates
// against: partitioned by actor1Code, row-keyed by (year, month).
func demoDataset() config.DatasetConfig {
	return config.DatasetConfig{
		Name: "gdelt",
		Columns: map[string]config.ColumnType{
			"actor1Code": config.ColumnString,
			"actor2Code": config.ColumnString,
			"year":       config.ColumnInt,
			"month":      config.ColumnInt,
			"sqlDate":    config.ColumnLong,
		},
		PartitionKeyColumns: []string{"actor1Code"},
		RowKeyColumns:       []string{"year", "month"},
	}
}

// demoStore is a minimal in-memory ingestctl.MetadataStore: just enough
// bookkeeping for the CLI's "ingest" subcommand to exercise the
// controller's full startup-validation and shard-update path without a
// real metadata/column store.
type demoStore struct {
	mu         sync.Mutex
	datasets   map[string]ingestctl.Dataset
	partitions map[string]ingestctl.PartitionRecord
}

func newDemoStore() *demoStore {
	return &demoStore{
		datasets:   make(map[string]ingestctl.Dataset),
		partitions: make(map[string]ingestctl.PartitionRecord),
	}
}

func (s *demoStore) registerDataset(name string, cfg config.DatasetConfig) {
	cols := make(map[string]ingestctl.ColumnDef, len(cfg.Columns))
	for colName, t := range cfg.Columns {
		code, err := t.KeyTypeCode()
		if err != nil {
			continue
		}
		cols[colName] = ingestctl.ColumnDef{Name: colName, Type: code}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[name] = ingestctl.Dataset{Name: name, Columns: cols}
}

func (s *demoStore) registerPartition(dataset, partition string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[partitionKey(dataset, partition)] = ingestctl.PartitionRecord{
		Dataset:       dataset,
		Partition:     partition,
		ShardVersions: make(map[int32]ingestctl.ShardEntry),
	}
}

func (s *demoStore) GetDataset(_ context.Context, dataset string) (ingestctl.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.datasets[dataset]
	if !ok {
		return ingestctl.Dataset{}, ingestctl.ErrNotFound
	}
	return ds, nil
}

func (s *demoStore) GetPartition(_ context.Context, dataset, partition string) (ingestctl.PartitionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.partitions[partitionKey(dataset, partition)]
	if !ok {
		return ingestctl.PartitionRecord{}, ingestctl.ErrNotFound
	}
	return rec, nil
}

func (s *demoStore) UpdatePartitionShards(_ context.Context, dataset, partition string, entry ingestctl.ShardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := partitionKey(dataset, partition)
	rec, ok := s.partitions[key]
	if !ok {
		return ingestctl.ErrNotFound
	}
	rec.ShardVersions[entry.Version] = entry
	s.partitions[key] = rec
	return nil
}

func partitionKey(dataset, partition string) string { return dataset + "\x00" + partition }

// touchedPartitions returns the distinct partitions a resolved plan's
// chunk entries span, in first-seen order.
func touchedPartitions(entries []executor.ChunkEntry) []string {
	seen := make(map[string]bool, len(entries))
	var out []string
	for _, e := range entries {
		if seen[e.Partition] {
			continue
		}
		seen[e.Partition] = true
		out = append(out, e.Partition)
	}
	return out
}

// demoWriter accepts every write and just logs it; a real column store
// backend is out of scope (§1 Non-goals: no metadata/column-store
// persistence engine).
type demoWriter struct {
	logger *slog.Logger
}

func newDemoWriter(logger *slog.Logger) *demoWriter {
	return &demoWriter{logger: logger}
}

func (w *demoWriter) Write(_ context.Context, dataset, partition string, chunk ingestctl.ChunkedColumns) error {
	w.logger.Info("demo writer accepted chunk",
		"dataset", dataset, "partition", partition,
		"version", chunk.Version, "first_row_id", chunk.FirstRowID, "last_row_id", chunk.LastRowID,
		"columns", len(chunk.Columns))
	return nil
}

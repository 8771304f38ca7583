package ingestctl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"columnstore/internal/keytype"
)

type fakeStore struct {
	mu         sync.Mutex
	datasets   map[string]Dataset
	partitions map[string]PartitionRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{datasets: make(map[string]Dataset), partitions: make(map[string]PartitionRecord)}
}

func (s *fakeStore) GetDataset(ctx context.Context, dataset string) (Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.datasets[dataset]
	if !ok {
		return Dataset{}, ErrNotFound
	}
	return ds, nil
}

func (s *fakeStore) GetPartition(ctx context.Context, dataset, partition string) (PartitionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.partitions[partition]
	if !ok {
		return PartitionRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *fakeStore) UpdatePartitionShards(ctx context.Context, dataset, partition string, entry ShardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.partitions[partition]
	if rec.ShardVersions == nil {
		rec.ShardVersions = make(map[int32]ShardEntry)
	}
	rec.Dataset, rec.Partition = dataset, partition
	rec.ShardVersions[entry.Version] = entry
	s.partitions[partition] = rec
	return nil
}

type fakeWriter struct {
	fail bool
}

func (w *fakeWriter) Write(ctx context.Context, dataset, partition string, chunk ChunkedColumns) error {
	if w.fail {
		return errors.New("write failed")
	}
	return nil
}

func gdeltDataset() Dataset {
	return Dataset{
		Name: "gdelt",
		Columns: map[string]ColumnDef{
			"monthYear":  {Name: "monthYear", Type: keytype.Int},
			"year":       {Name: "year", Type: keytype.Int},
			"actor2Code": {Name: "actor2Code", Type: keytype.String},
		},
	}
}

// TestStartupMissingDataset covers scenario S1.
func TestStartupMissingDataset(t *testing.T) {
	store := newFakeStore()
	_, ev := New(context.Background(), "none", "p", nil, store, &fakeWriter{}, nil)
	if ev.Kind != NoDatasetColumns || ev.Dataset != "none" {
		t.Fatalf("expected NoDatasetColumns(none), got %+v", ev)
	}
}

// TestStartupUndefinedColumns covers scenario S2.
func TestStartupUndefinedColumns(t *testing.T) {
	store := newFakeStore()
	store.datasets["gdelt"] = gdeltDataset()
	store.partitions["1979-1984"] = PartitionRecord{Dataset: "gdelt", Partition: "1979-1984"}

	_, ev := New(context.Background(), "gdelt", "1979-1984", []string{"monthYear", "last"}, store, &fakeWriter{}, nil)
	if ev.Kind != UndefinedColumns {
		t.Fatalf("expected UndefinedColumns, got %+v", ev)
	}
	if len(ev.Missing) != 1 || ev.Missing[0] != "last" {
		t.Fatalf("expected missing=[last], got %v", ev.Missing)
	}
}

func TestStartupPartitionNotFound(t *testing.T) {
	store := newFakeStore()
	store.datasets["gdelt"] = gdeltDataset()

	_, ev := New(context.Background(), "gdelt", "missing", []string{"year"}, store, &fakeWriter{}, nil)
	if ev.Kind != PartitionNotFound {
		t.Fatalf("expected PartitionNotFound, got %+v", ev)
	}
}

// TestHappyPathIngest covers scenario S3.
func TestHappyPathIngest(t *testing.T) {
	store := newFakeStore()
	store.datasets["gdelt"] = gdeltDataset()
	store.partitions["1979-1984"] = PartitionRecord{Dataset: "gdelt", Partition: "1979-1984"}

	ctrl, ev := New(context.Background(), "gdelt", "1979-1984", []string{"monthYear"}, store, &fakeWriter{}, nil)
	if ev.Kind != GoodToGo {
		t.Fatalf("expected GoodToGo, got %+v", ev)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan ChunkedColumns, 1)
	out := make(chan Event, 1)

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx, in, out) }()

	in <- ChunkedColumns{Version: 0, FirstRowID: 0, LastRowID: 5, AckRowID: 5, Columns: map[string][]byte{"id": {1}}}

	select {
	case got := <-out:
		if got.Kind != Ack || got.Dataset != "gdelt" || got.Partition != "1979-1984" || got.RowID != 5 {
			t.Fatalf("expected Ack(gdelt,1979-1984,5), got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Ack")
	}

	rec, err := store.GetPartition(ctx, "gdelt", "1979-1984")
	if err != nil {
		t.Fatalf("GetPartition: %v", err)
	}
	if len(rec.ShardVersions) != 1 {
		t.Fatalf("expected 1 shard version entry, got %d", len(rec.ShardVersions))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
	if ctrl.State() != Stopped {
		t.Fatalf("expected Stopped state, got %v", ctrl.State())
	}
}

// TestInvalidVersionRejected covers scenario S4.
func TestInvalidVersionRejected(t *testing.T) {
	store := newFakeStore()
	store.datasets["gdelt"] = gdeltDataset()
	store.partitions["1979-1984"] = PartitionRecord{Dataset: "gdelt", Partition: "1979-1984"}

	ctrl, ev := New(context.Background(), "gdelt", "1979-1984", []string{"monthYear"}, store, &fakeWriter{}, nil)
	if ev.Kind != GoodToGo {
		t.Fatalf("expected GoodToGo, got %+v", ev)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan ChunkedColumns, 1)
	out := make(chan Event, 1)
	go ctrl.Run(ctx, in, out)

	in <- ChunkedColumns{Version: -1, FirstRowID: 0, LastRowID: 5, AckRowID: 5}

	select {
	case got := <-out:
		if got.Kind != ShardingError || got.RowID != 5 {
			t.Fatalf("expected ShardingError(...,5), got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ShardingError")
	}
}

// TestWriteFailureLeavesShardVersionsUnmutated covers invariant 7 and the
// design note that a failed write must not mutate shardVersions.
func TestWriteFailureLeavesShardVersionsUnmutated(t *testing.T) {
	store := newFakeStore()
	store.datasets["gdelt"] = gdeltDataset()
	store.partitions["1979-1984"] = PartitionRecord{Dataset: "gdelt", Partition: "1979-1984"}

	ctrl, ev := New(context.Background(), "gdelt", "1979-1984", []string{"monthYear"}, store, &fakeWriter{fail: true}, nil)
	if ev.Kind != GoodToGo {
		t.Fatalf("expected GoodToGo, got %+v", ev)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan ChunkedColumns, 1)
	out := make(chan Event, 1)
	go ctrl.Run(ctx, in, out)

	in <- ChunkedColumns{Version: 0, FirstRowID: 0, LastRowID: 5, AckRowID: 5}

	select {
	case got := <-out:
		if got.Kind != ShardingError {
			t.Fatalf("expected ShardingError, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ShardingError")
	}

	rec, err := store.GetPartition(ctx, "gdelt", "1979-1984")
	if err != nil {
		t.Fatalf("GetPartition: %v", err)
	}
	if len(rec.ShardVersions) != 0 {
		t.Fatalf("expected shardVersions unmutated after write failure, got %v", rec.ShardVersions)
	}
}

func TestRunRejectsWhenNotReady(t *testing.T) {
	store := newFakeStore()
	ctrl, ev := New(context.Background(), "none", "p", nil, store, &fakeWriter{}, nil)
	if ev.Kind != NoDatasetColumns {
		t.Fatalf("expected NoDatasetColumns, got %+v", ev)
	}
	err := ctrl.Run(context.Background(), make(chan ChunkedColumns), make(chan Event))
	if err == nil {
		t.Fatal("expected error running a Rejected controller")
	}
}

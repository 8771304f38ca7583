package executor

import (
	"context"
	"testing"

	"columnstore/internal/binrecord"
	"columnstore/internal/chunk"
	"columnstore/internal/chunkidx"
	"columnstore/internal/keytype"
	"columnstore/internal/scanplan"
)

func encodeLong(t *testing.T, v int64) binrecord.Record {
	t.Helper()
	r, err := binrecord.Encode([]keytype.Code{keytype.Long}, []any{v})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return r
}

// fakeLoader builds a fresh index per partition on first touch, keyed by
// partition id, so tests can seed known chunk layouts per partition.
type fakeLoader struct {
	seed map[string][]chunkidx.ChunkSetInfo
}

func (f *fakeLoader) LoadPartitionIndex(_ context.Context, _, partition string, variant chunkidx.Variant) (chunkidx.Index, error) {
	idx := chunkidx.NewIndex(variant)
	for _, info := range f.seed[partition] {
		if err := idx.Add(info, nil); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

type fakeEnumerator struct {
	splits []binrecord.Record
}

func (f *fakeEnumerator) Splits(context.Context, string) ([]binrecord.Record, error) {
	return f.splits, nil
}

func collectOffsets(seq func(func(int64) bool)) []int64 {
	var out []int64
	seq(func(v int64) bool {
		out = append(out, v)
		return true
	})
	return out
}

func TestExecuteSinglePartition(t *testing.T) {
	id := chunk.New()
	partKey, err := binrecord.Encode([]keytype.Code{keytype.String}, []any{"USA"})
	if err != nil {
		t.Fatalf("encode partition key: %v", err)
	}
	partition := partitionID(partKey)

	loader := &fakeLoader{seed: map[string][]chunkidx.ChunkSetInfo{
		partition: {{ChunkID: id, NumRows: 5, FirstKey: encodeLong(t, 0), LastKey: encodeLong(t, 10)}},
	}}
	cache, err := chunkidx.NewCache(8, loader, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	pscan := scanplan.PartitionScanMethod{Kind: scanplan.Single, Key: partKey}
	cscan := scanplan.ChunkScanMethod{Kind: scanplan.All}

	entries, err := Execute(context.Background(), cache, nil, "gdelt", chunkidx.RowKeyOrdered, pscan, cscan, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(entries) != 1 || entries[0].Info.ChunkID != id {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Partition != partition {
		t.Errorf("partition mismatch: got %q, want %q", entries[0].Partition, partition)
	}
}

func TestExecuteMultiPreservesOrder(t *testing.T) {
	keyA, _ := binrecord.Encode([]keytype.Code{keytype.String}, []any{"AAA"})
	keyB, _ := binrecord.Encode([]keytype.Code{keytype.String}, []any{"BBB"})
	idA, idB := chunk.New(), chunk.New()

	loader := &fakeLoader{seed: map[string][]chunkidx.ChunkSetInfo{
		partitionID(keyA): {{ChunkID: idA, NumRows: 1, FirstKey: encodeLong(t, 0), LastKey: encodeLong(t, 1)}},
		partitionID(keyB): {{ChunkID: idB, NumRows: 1, FirstKey: encodeLong(t, 0), LastKey: encodeLong(t, 1)}},
	}}
	cache, err := chunkidx.NewCache(8, loader, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	pscan := scanplan.PartitionScanMethod{Kind: scanplan.Multi, Keys: []binrecord.Record{keyA, keyB}}
	cscan := scanplan.ChunkScanMethod{Kind: scanplan.All}

	entries, err := Execute(context.Background(), cache, nil, "gdelt", chunkidx.RowKeyOrdered, pscan, cscan, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(entries) != 2 || entries[0].Info.ChunkID != idA || entries[1].Info.ChunkID != idB {
		t.Fatalf("expected entries in [A, B] order, got %+v", entries)
	}
}

func TestExecuteFilteredAppliesResidualAndFansOut(t *testing.T) {
	keyUSA, _ := binrecord.Encode([]keytype.Code{keytype.String}, []any{"USA"})
	keyRUS, _ := binrecord.Encode([]keytype.Code{keytype.String}, []any{"RUS"})
	idUSA, idRUS := chunk.New(), chunk.New()

	loader := &fakeLoader{seed: map[string][]chunkidx.ChunkSetInfo{
		partitionID(keyUSA): {{ChunkID: idUSA, NumRows: 1, FirstKey: encodeLong(t, 0), LastKey: encodeLong(t, 1)}},
		partitionID(keyRUS): {{ChunkID: idRUS, NumRows: 1, FirstKey: encodeLong(t, 0), LastKey: encodeLong(t, 1)}},
	}}
	cache, err := chunkidx.NewCache(8, loader, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	enum := &fakeEnumerator{splits: []binrecord.Record{keyUSA, keyRUS}}

	pscan := scanplan.PartitionScanMethod{
		Kind: scanplan.Filtered,
		Residual: func(key binrecord.Record) bool {
			return binrecord.Compare(key, keyUSA) == keytype.Equal
		},
	}
	cscan := scanplan.ChunkScanMethod{Kind: scanplan.All}

	entries, err := Execute(context.Background(), cache, enum, "gdelt", chunkidx.RowKeyOrdered, pscan, cscan, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(entries) != 1 || entries[0].Info.ChunkID != idUSA {
		t.Fatalf("expected only the USA partition's chunk to survive, got %+v", entries)
	}
}

func TestExecuteFilteredRequiresEnumerator(t *testing.T) {
	cache, err := chunkidx.NewCache(8, &fakeLoader{}, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	pscan := scanplan.PartitionScanMethod{Kind: scanplan.Filtered}
	_, err = Execute(context.Background(), cache, nil, "gdelt", chunkidx.RowKeyOrdered, pscan, scanplan.ChunkScanMethod{Kind: scanplan.All}, nil)
	if err == nil {
		t.Fatal("expected error when no enumerator is supplied for a Filtered scan")
	}
}

func TestLiveRowsExcludesSkips(t *testing.T) {
	got := collectOffsets(liveRows(5, []int64{1, 3}))
	want := []int64{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLiveRowsNoSkips(t *testing.T) {
	got := collectOffsets(liveRows(3, nil))
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("got %v", got)
	}
}

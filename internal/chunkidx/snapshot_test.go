package chunkidx

import (
	"testing"

	"columnstore/internal/chunk"
	"columnstore/internal/format"
)

func TestSnapshotRoundTrip(t *testing.T) {
	a := info(t, chunk.New(), 0, 10)
	b := info(t, chunk.New(), 20, 30)
	entries := []Entry{
		{Info: a, Skips: []int64{1, 2, 3}},
		{Info: b, Skips: nil},
	}

	data, err := EncodeSnapshot(entries)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}

	h, err := format.Decode(data)
	if err != nil {
		t.Fatalf("format.Decode: %v", err)
	}
	if h.Type != format.TypeChunkIndexSnapshot {
		t.Fatalf("unexpected header type %q", h.Type)
	}

	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Info.ChunkID != a.ChunkID || len(got[0].Skips) != 3 {
		t.Fatalf("entry 0 mismatch: %+v", got[0])
	}
	if got[1].Info.ChunkID != b.ChunkID || len(got[1].Skips) != 0 {
		t.Fatalf("entry 1 mismatch: %+v", got[1])
	}
}

func TestDecodeSnapshotRejectsBadHeader(t *testing.T) {
	if _, err := DecodeSnapshot([]byte{0, 0, 0}); err == nil {
		t.Fatal("expected error for truncated snapshot")
	}
	if _, err := DecodeSnapshot([]byte{'x', format.TypeChunkIndexSnapshot, 1, 0}); err == nil {
		t.Fatal("expected error for bad signature")
	}
}

func TestLoadIndexFromSnapshot(t *testing.T) {
	a := info(t, chunk.New(), 0, 10)
	entries := []Entry{{Info: a, Skips: []int64{5}}}
	data, err := EncodeSnapshot(entries)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}

	idx, err := LoadIndexFromSnapshot(RowKeyOrdered, data)
	if err != nil {
		t.Fatalf("LoadIndexFromSnapshot: %v", err)
	}
	if idx.NumChunks() != 1 {
		t.Fatalf("expected 1 chunk, got %d", idx.NumChunks())
	}
	got := collect(idx.AllChunks())
	if len(got) != 1 || len(got[0].Skips) != 1 || got[0].Skips[0] != 5 {
		t.Fatalf("unexpected replayed entry: %+v", got)
	}
}

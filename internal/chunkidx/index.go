package chunkidx

import (
	"iter"

	"columnstore/internal/binrecord"
	"columnstore/internal/chunk"
)

// Index is the capability contract both partition chunk index variants
// satisfy: it tracks a partition's chunks and skip offsets, and answers
// the range queries the scan planner issues against it.
//
// Implementations are owned by a single scanning task at a time; callers
// must not share an Index mutably across concurrent tasks, per the
// partition index's ownership model.
type Index interface {
	// Add inserts info and merges skips into the index's skip map. For each
	// skip whose TargetID already has an entry in the index, the skip's
	// offsets are merged (de-duplicated, ascending) into that entry's skip
	// set. Re-adding the same offsets is harmless.
	Add(info ChunkSetInfo, skips []Skip) error

	// NumChunks returns the current chunk count.
	NumChunks() int

	// AllChunks returns every (info, skips) pair, in the variant's natural
	// order. The sequence is finite and restartable; it reflects the
	// index's state at the time AllChunks is called, independent of later
	// mutation of the index.
	AllChunks() iter.Seq[Entry]

	// RowKeyRange returns every (info, skips) pair whose key interval
	// intersects [lo, hi], in the variant's natural order. There are no
	// false negatives: every chunk with Info.Intersection(lo, hi) ok==true
	// is emitted.
	RowKeyRange(lo, hi binrecord.Record) iter.Seq[Entry]

	// SingleChunk returns the entry for chunk id at firstKey, or a single
	// empty Seq if no such chunk is present.
	SingleChunk(firstKey binrecord.Record, id chunk.ID) iter.Seq[Entry]
}

// Variant selects which concrete Index implementation NewIndex builds.
type Variant int

const (
	// RowKeyOrdered backs the index with a row-key-ordered tree, best for
	// range-heavy scan workloads.
	RowKeyOrdered Variant = iota
	// ChunkIDOrdered backs the index with a chunk-id-ordered map, best for
	// full-partition or time-recency scans.
	ChunkIDOrdered
)

// NewIndex constructs an empty Index of the given variant.
func NewIndex(v Variant) Index {
	switch v {
	case RowKeyOrdered:
		return newRowKeyIndex()
	case ChunkIDOrdered:
		return newChunkIDIndex()
	default:
		panic("chunkidx: unknown variant")
	}
}

func sliceSeq(entries []Entry) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range entries {
			if !yield(e) {
				return
			}
		}
	}
}

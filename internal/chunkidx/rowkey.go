package chunkidx

import (
	"iter"
	"sync"

	"github.com/google/btree"

	"columnstore/internal/binrecord"
	"columnstore/internal/chunk"
	"columnstore/internal/keytype"
)

// maxChunkID is the all-ones sentinel used as an exclusive upper bound when
// pruning the row-key-ordered tree to "every entry with first_key <= hi".
// Chunk IDs are UUIDv7-derived and never equal this value in practice.
var maxChunkID = func() chunk.ID {
	var id chunk.ID
	for i := range id {
		id[i] = 0xFF
	}
	return id
}()

// rowKeyItem is the btree element: ordered by (FirstKey, ChunkID)
// lexicographic, with ChunkID as the unique tiebreaker.
type rowKeyItem struct {
	firstKey binrecord.Record
	chunkID  chunk.ID
	info     ChunkSetInfo
}

func rowKeyLess(a, b rowKeyItem) bool {
	if c := binrecord.Compare(a.firstKey, b.firstKey); c != keytype.Equal {
		return c == keytype.Less
	}
	return chunk.Compare(a.chunkID, b.chunkID) < 0
}

// rowKeyIndex is the row-key-ordered PartitionChunkIndex variant, backed by
// an ordered tree keyed on (first_key, chunk_id). It is recommended when
// scans are range-heavy, since row_key_range prunes the tree directly
// instead of scanning every chunk.
type rowKeyIndex struct {
	mu    sync.RWMutex
	tree  *btree.BTreeG[rowKeyItem]
	skips map[chunk.ID]*skipSet
}

func newRowKeyIndex() *rowKeyIndex {
	return &rowKeyIndex{
		tree:  btree.NewG(32, rowKeyLess),
		skips: make(map[chunk.ID]*skipSet),
	}
}

func (x *rowKeyIndex) Add(info ChunkSetInfo, skips []Skip) error {
	if err := info.Validate(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.tree.ReplaceOrInsert(rowKeyItem{firstKey: info.FirstKey, chunkID: info.ChunkID, info: info})
	if _, ok := x.skips[info.ChunkID]; !ok {
		x.skips[info.ChunkID] = &skipSet{}
	}

	for _, s := range skips {
		if _, ok := x.skips[s.TargetID]; !ok {
			continue // skip targets a chunk not (yet) present in the index
		}
		x.skips[s.TargetID].merge(s.Offsets)
	}
	return nil
}

func (x *rowKeyIndex) NumChunks() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.tree.Len()
}

func (x *rowKeyIndex) AllChunks() iter.Seq[Entry] {
	x.mu.RLock()
	entries := make([]Entry, 0, x.tree.Len())
	x.tree.Ascend(func(item rowKeyItem) bool {
		entries = append(entries, Entry{Info: item.info, Skips: x.skips[item.chunkID].snapshot()})
		return true
	})
	x.mu.RUnlock()
	return sliceSeq(entries)
}

func (x *rowKeyIndex) RowKeyRange(lo, hi binrecord.Record) iter.Seq[Entry] {
	x.mu.RLock()
	var entries []Entry
	pivot := rowKeyItem{firstKey: hi, chunkID: maxChunkID}
	x.tree.AscendLessThan(pivot, func(item rowKeyItem) bool {
		if _, _, ok := item.info.Intersection(lo, hi); ok {
			entries = append(entries, Entry{Info: item.info, Skips: x.skips[item.chunkID].snapshot()})
		}
		return true
	})
	x.mu.RUnlock()
	return sliceSeq(entries)
}

func (x *rowKeyIndex) SingleChunk(firstKey binrecord.Record, id chunk.ID) iter.Seq[Entry] {
	x.mu.RLock()
	item, ok := x.tree.Get(rowKeyItem{firstKey: firstKey, chunkID: id})
	var entries []Entry
	if ok {
		entries = append(entries, Entry{Info: item.info, Skips: x.skips[item.chunkID].snapshot()})
	}
	x.mu.RUnlock()
	return sliceSeq(entries)
}

package chunkidx

import (
	"iter"
	"sort"
	"sync"

	"columnstore/internal/binrecord"
	"columnstore/internal/chunk"
	"columnstore/internal/keytype"
)

// chunkIDIndex is the chunk-id-ordered PartitionChunkIndex variant, backed
// by a plain map keyed on chunk id. row_key_range performs a linear scan
// filtered by intersection. Recommended when queries are mostly
// full-partition or time-recency ordered, since it avoids the overhead of
// maintaining an ordered tree that range pruning wouldn't exploit anyway.
type chunkIDIndex struct {
	mu    sync.RWMutex
	infos map[chunk.ID]ChunkSetInfo
	order []chunk.ID // ascending chunk_id ≈ ingest order
	skips map[chunk.ID]*skipSet
}

func newChunkIDIndex() *chunkIDIndex {
	return &chunkIDIndex{
		infos: make(map[chunk.ID]ChunkSetInfo),
		skips: make(map[chunk.ID]*skipSet),
	}
}

func (x *chunkIDIndex) Add(info ChunkSetInfo, skips []Skip) error {
	if err := info.Validate(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.infos[info.ChunkID]; !exists {
		x.order = insertSortedChunkID(x.order, info.ChunkID)
	}
	x.infos[info.ChunkID] = info
	if _, ok := x.skips[info.ChunkID]; !ok {
		x.skips[info.ChunkID] = &skipSet{}
	}

	// Only the target chunk's own skip cache is updated; the newly added
	// chunk never supersedes its own rows.
	for _, s := range skips {
		if _, ok := x.skips[s.TargetID]; !ok {
			continue
		}
		x.skips[s.TargetID].merge(s.Offsets)
	}
	return nil
}

func insertSortedChunkID(order []chunk.ID, id chunk.ID) []chunk.ID {
	i := sort.Search(len(order), func(i int) bool { return chunk.Compare(order[i], id) >= 0 })
	order = append(order, chunk.ID{})
	copy(order[i+1:], order[i:])
	order[i] = id
	return order
}

func (x *chunkIDIndex) NumChunks() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.infos)
}

func (x *chunkIDIndex) AllChunks() iter.Seq[Entry] {
	x.mu.RLock()
	entries := make([]Entry, 0, len(x.order))
	for _, id := range x.order {
		entries = append(entries, Entry{Info: x.infos[id], Skips: x.skips[id].snapshot()})
	}
	x.mu.RUnlock()
	return sliceSeq(entries)
}

func (x *chunkIDIndex) RowKeyRange(lo, hi binrecord.Record) iter.Seq[Entry] {
	x.mu.RLock()
	var entries []Entry
	for _, id := range x.order {
		info := x.infos[id]
		if _, _, ok := info.Intersection(lo, hi); ok {
			entries = append(entries, Entry{Info: info, Skips: x.skips[id].snapshot()})
		}
	}
	x.mu.RUnlock()
	return sliceSeq(entries)
}

func (x *chunkIDIndex) SingleChunk(firstKey binrecord.Record, id chunk.ID) iter.Seq[Entry] {
	x.mu.RLock()
	defer x.mu.RUnlock()

	info, ok := x.infos[id]
	if !ok || binrecord.Compare(info.FirstKey, firstKey) != keytype.Equal {
		return sliceSeq(nil)
	}
	return sliceSeq([]Entry{{Info: info, Skips: x.skips[id].snapshot()}})
}

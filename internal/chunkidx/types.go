// Package chunkidx implements the per-partition chunk index: the
// in-memory structure that tracks a partition's chunks and their row-level
// skip information, and answers the range queries the scan planner issues
// against it.
package chunkidx

import (
	"fmt"

	"columnstore/internal/binrecord"
	"columnstore/internal/chunk"
	"columnstore/internal/keytype"
)

// ChunkSetInfo describes one immutable chunk: its identifier, row count,
// and first/last row-key bounds. It is created at ingest commit and never
// mutated afterward.
type ChunkSetInfo struct {
	ChunkID  chunk.ID
	NumRows  int32
	FirstKey binrecord.Record
	LastKey  binrecord.Record
}

// Validate checks the descriptor's own invariant: FirstKey must not sort
// after LastKey.
func (c ChunkSetInfo) Validate() error {
	if binrecord.Compare(c.FirstKey, c.LastKey) == keytype.Greater {
		return fmt.Errorf("chunkidx: chunk %s has first_key > last_key", c.ChunkID)
	}
	return nil
}

// Intersection returns the overlap of c's key interval with [lo, hi], or
// ok=false if the two intervals don't overlap. It is the sole geometric
// primitive used for range pruning.
func (c ChunkSetInfo) Intersection(lo, hi binrecord.Record) (first, last binrecord.Record, ok bool) {
	if binrecord.Compare(c.FirstKey, hi) == keytype.Greater {
		return nil, nil, false
	}
	if binrecord.Compare(c.LastKey, lo) == keytype.Less {
		return nil, nil, false
	}
	first = c.FirstKey
	if binrecord.Compare(lo, first) == keytype.Greater {
		first = lo
	}
	last = c.LastKey
	if binrecord.Compare(hi, last) == keytype.Less {
		last = hi
	}
	return first, last, true
}

// Skip names the chunk a set of row offsets supersedes. Skips are produced
// as a side effect of ingesting a newer chunk that overrides rows in an
// older one; TargetID is always an older chunk already present in the
// index by the time the skip is added.
type Skip struct {
	TargetID chunk.ID
	Offsets  []int64
}

// skipSet is an ascending, de-duplicated set of row offsets for one chunk.
// Adding offsets is an idempotent set-union: re-adding the same offset is
// harmless.
type skipSet struct {
	offsets []int64 // kept sorted ascending, de-duplicated
}

func (s *skipSet) merge(offsets []int64) {
	if len(offsets) == 0 {
		return
	}
	seen := make(map[int64]struct{}, len(s.offsets)+len(offsets))
	for _, o := range s.offsets {
		seen[o] = struct{}{}
	}
	changed := false
	for _, o := range offsets {
		if _, ok := seen[o]; !ok {
			seen[o] = struct{}{}
			s.offsets = append(s.offsets, o)
			changed = true
		}
	}
	if changed {
		insertionSort(s.offsets)
	}
}

func insertionSort(s []int64) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

func (s *skipSet) snapshot() []int64 {
	if len(s.offsets) == 0 {
		return nil
	}
	out := make([]int64, len(s.offsets))
	copy(out, s.offsets)
	return out
}

// Entry pairs a chunk's descriptor with its current skip offsets, the unit
// index iteration yields.
type Entry struct {
	Info  ChunkSetInfo
	Skips []int64
}

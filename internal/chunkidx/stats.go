package chunkidx

import (
	"columnstore/internal/binrecord"
	"columnstore/internal/keytype"
)

// Stats summarizes a partition chunk index for operational visibility:
// cheap counters computed on demand by a single walk, not maintained
// incrementally as the index mutates.
type Stats struct {
	NumChunks   int
	TotalSkips  int
	TotalRows   int64
	MinFirstKey binrecord.Record
	MaxFirstKey binrecord.Record
}

// ComputeStats walks idx's chunks once via AllChunks and summarizes them.
// It does not assume any particular iteration order.
func ComputeStats(idx Index) Stats {
	var s Stats
	for e := range idx.AllChunks() {
		s.NumChunks++
		s.TotalSkips += len(e.Skips)
		s.TotalRows += int64(e.Info.NumRows)
		if s.MinFirstKey == nil || binrecord.Compare(e.Info.FirstKey, s.MinFirstKey) == keytype.Less {
			s.MinFirstKey = e.Info.FirstKey
		}
		if s.MaxFirstKey == nil || binrecord.Compare(e.Info.FirstKey, s.MaxFirstKey) == keytype.Greater {
			s.MaxFirstKey = e.Info.FirstKey
		}
	}
	return s
}

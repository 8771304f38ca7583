package chunkidx

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"columnstore/internal/chunk"
	"columnstore/internal/format"
)

// snapshotVersion is the wire version stamped into every snapshot's
// header; bump it when wireEntry's shape changes incompatibly.
const snapshotVersion = 1

// wireEntry is Entry's on-the-wire shape: chunk.ID and binrecord.Record
// both need a msgpack-friendly representation ([16]byte arrays and byte
// slices round-trip as msgpack bin values either way, but spelling them
// out keeps the wire format independent of those types' Go layout).
type wireEntry struct {
	ChunkID  []byte  `msgpack:"chunk_id"`
	NumRows  int32   `msgpack:"num_rows"`
	FirstKey []byte  `msgpack:"first_key"`
	LastKey  []byte  `msgpack:"last_key"`
	Skips    []int64 `msgpack:"skips"`
}

// EncodeSnapshot serializes a partition's chunk entries into a header-
// prefixed msgpack payload, suitable for a metadata store to persist and
// hand back on the next cache miss instead of rebuilding the index
// chunk-by-chunk.
func EncodeSnapshot(entries []Entry) ([]byte, error) {
	wire := make([]wireEntry, len(entries))
	for i, e := range entries {
		wire[i] = wireEntry{
			ChunkID:  e.Info.ChunkID[:],
			NumRows:  e.Info.NumRows,
			FirstKey: e.Info.FirstKey,
			LastKey:  e.Info.LastKey,
			Skips:    e.Skips,
		}
	}

	body, err := msgpack.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("chunkidx: encoding snapshot: %w", err)
	}

	header := format.Header{Type: format.TypeChunkIndexSnapshot, Version: snapshotVersion}
	out := make([]byte, 0, format.HeaderSize+len(body))
	hdrBuf := header.Encode()
	out = append(out, hdrBuf[:]...)
	out = append(out, body...)
	return out, nil
}

// DecodeSnapshot reverses EncodeSnapshot.
func DecodeSnapshot(data []byte) ([]Entry, error) {
	if _, err := format.DecodeAndValidate(data, format.TypeChunkIndexSnapshot, snapshotVersion); err != nil {
		return nil, fmt.Errorf("chunkidx: decoding snapshot header: %w", err)
	}

	var wire []wireEntry
	if err := msgpack.Unmarshal(data[format.HeaderSize:], &wire); err != nil {
		return nil, fmt.Errorf("chunkidx: decoding snapshot body: %w", err)
	}

	entries := make([]Entry, len(wire))
	for i, w := range wire {
		var id chunk.ID
		if len(w.ChunkID) != len(id) {
			return nil, fmt.Errorf("chunkidx: snapshot entry %d has malformed chunk id (%d bytes)", i, len(w.ChunkID))
		}
		copy(id[:], w.ChunkID)
		entries[i] = Entry{
			Info: ChunkSetInfo{ChunkID: id, NumRows: w.NumRows, FirstKey: w.FirstKey, LastKey: w.LastKey},
			Skips: w.Skips,
		}
	}
	return entries, nil
}

// LoadIndexFromSnapshot rebuilds an Index of the given variant from a
// previously encoded snapshot, re-adding every entry's skips against
// itself (a snapshot already carries each chunk's merged skip set, so
// every skip targets its own owning chunk in this replay).
func LoadIndexFromSnapshot(variant Variant, data []byte) (Index, error) {
	entries, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	idx := NewIndex(variant)
	for _, e := range entries {
		skips := []Skip(nil)
		if len(e.Skips) > 0 {
			skips = []Skip{{TargetID: e.Info.ChunkID, Offsets: e.Skips}}
		}
		if err := idx.Add(e.Info, skips); err != nil {
			return nil, fmt.Errorf("chunkidx: replaying snapshot entry for chunk %s: %w", e.Info.ChunkID, err)
		}
	}
	return idx, nil
}

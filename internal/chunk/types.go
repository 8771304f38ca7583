// Package chunk defines the chunk identifier shared by every component that
// names a chunk: the partition chunk index (its entries, snapshots and
// compaction hook) and the scan executor's resolved chunk entries.
package chunk

import (
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// chunkIDEncoding is base32hex (RFC 4648) lowercase without padding.
// Alphabet 0-9a-v preserves lexicographic sort order.
var chunkIDEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// ID uniquely identifies a chunk within a partition.
// It is a UUIDv7 (16 bytes) whose string representation is 26-char lowercase
// base32hex, lexicographically sortable by creation time. This satisfies the
// data model's chunk_id requirement (a unique, comparable, monotonically
// assigned identifier) while giving chunk-id-ordered iteration the same
// ordering as ingest order, matching the chunk-id-ordered index variant's
// contract.
type ID [16]byte

// New creates an ID from a new UUIDv7.
// UUIDv7 embeds a millisecond timestamp and guarantees monotonically
// increasing IDs, so chunk-id order and ingest order coincide.
func New() ID {
	return ID(uuid.Must(uuid.NewV7()))
}

// Parse parses a 26-character base32hex string into an ID.
func Parse(value string) (ID, error) {
	if len(value) != 26 {
		return ID{}, fmt.Errorf("invalid chunk ID length: %d (want 26)", len(value))
	}
	decoded, err := chunkIDEncoding.DecodeString(strings.ToUpper(value))
	if err != nil {
		return ID{}, fmt.Errorf("invalid chunk ID: %w", err)
	}
	var id ID
	copy(id[:], decoded)
	return id, nil
}

// String returns the 26-character lowercase base32hex representation.
func (id ID) String() string {
	return strings.ToLower(chunkIDEncoding.EncodeToString(id[:]))
}

// Time returns the creation time encoded in the UUIDv7 ID.
// UUIDv7 stores millisecond Unix timestamp in bytes 0-5 (48 bits, big-endian).
func (id ID) Time() time.Time {
	ms := int64(id[0])<<40 | int64(id[1])<<32 | int64(id[2])<<24 |
		int64(id[3])<<16 | int64(id[4])<<8 | int64(id[5])
	return time.UnixMilli(ms)
}

// Compare orders two IDs by their UUIDv7 byte representation, which is also
// chronological creation order since UUIDv7 embeds a millisecond timestamp
// in its leading bytes.
func Compare(a, b ID) int {
	return strings.Compare(string(a[:]), string(b[:]))
}

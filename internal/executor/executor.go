// Package executor implements the scan execution coordination contract
// (§4.5): resolving a compiled scan plan into the partitions and chunks it
// selects. It decodes neither predicates nor column data — pushdown is the
// predicate compiler's responsibility, and physical column decoding is
// left to the caller.
package executor

import (
	"context"
	"encoding/hex"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"columnstore/internal/binrecord"
	"columnstore/internal/chunkidx"
	"columnstore/internal/logging"
	"columnstore/internal/scanplan"
)

// SplitEnumerator lists a backend's candidate partition keys for a dataset,
// one scan split per shard/node, used only for a Filtered plan.
type SplitEnumerator interface {
	Splits(ctx context.Context, dataset string) ([]binrecord.Record, error)
}

// ChunkEntry pairs a surviving partition with one of its chunk index
// entries and the still-live row offsets within it (NumRows range minus
// skips).
type ChunkEntry struct {
	Partition string
	Info      chunkidx.ChunkSetInfo
	LiveRows  iter.Seq[int64]
}

// Execute resolves (dataset, variant, PartitionScanMethod, ChunkScanMethod)
// into the chunk entries a query must read. For Single and Multi plans,
// partitions are scanned in declared order; for a Filtered plan, split
// enumeration and per-partition index loads run concurrently, bounded only
// by the underlying chunkidx.Cache's single-flight dedup.
func Execute(ctx context.Context, cache *chunkidx.Cache, enum SplitEnumerator, dataset string, variant chunkidx.Variant, pscan scanplan.PartitionScanMethod, cscan scanplan.ChunkScanMethod, logger *slog.Logger) ([]ChunkEntry, error) {
	logger = logging.Default(logger).With("component", "executor")

	switch pscan.Kind {
	case scanplan.Single:
		return scanPartition(ctx, cache, dataset, partitionID(pscan.Key), variant, cscan)
	case scanplan.Multi:
		var all []ChunkEntry
		for _, key := range pscan.Keys {
			entries, err := scanPartition(ctx, cache, dataset, partitionID(key), variant, cscan)
			if err != nil {
				return nil, err
			}
			all = append(all, entries...)
		}
		return all, nil
	case scanplan.Filtered:
		return executeFiltered(ctx, cache, enum, dataset, variant, pscan, cscan, logger)
	default:
		return nil, fmt.Errorf("executor: unknown partition scan kind %v", pscan.Kind)
	}
}

func executeFiltered(ctx context.Context, cache *chunkidx.Cache, enum SplitEnumerator, dataset string, variant chunkidx.Variant, pscan scanplan.PartitionScanMethod, cscan scanplan.ChunkScanMethod, logger *slog.Logger) ([]ChunkEntry, error) {
	if enum == nil {
		return nil, fmt.Errorf("executor: filtered scan requires a split enumerator")
	}

	candidates, err := enum.Splits(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("executor: enumerating splits for %s: %w", dataset, err)
	}

	var survivors []binrecord.Record
	for _, key := range candidates {
		if pscan.Residual == nil || pscan.Residual(key) {
			survivors = append(survivors, key)
		}
	}
	logger.Debug("filtered scan split survivors", "candidates", len(candidates), "survivors", len(survivors))

	var (
		mu  sync.Mutex
		all []ChunkEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range survivors {
		partition := partitionID(key)
		g.Go(func() error {
			entries, err := scanPartition(gctx, cache, dataset, partition, variant, cscan)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, entries...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

func scanPartition(ctx context.Context, cache *chunkidx.Cache, dataset, partition string, variant chunkidx.Variant, cscan scanplan.ChunkScanMethod) ([]ChunkEntry, error) {
	idx, err := cache.Get(ctx, dataset, partition, variant)
	if err != nil {
		return nil, fmt.Errorf("executor: loading index for %s/%s: %w", dataset, partition, err)
	}

	var seq iter.Seq[chunkidx.Entry]
	switch cscan.Kind {
	case scanplan.All:
		seq = idx.AllChunks()
	case scanplan.RowKeyRange:
		seq = idx.RowKeyRange(cscan.First, cscan.Last)
	default:
		return nil, fmt.Errorf("executor: unknown chunk scan kind %v", cscan.Kind)
	}

	var entries []ChunkEntry
	for e := range seq {
		entries = append(entries, ChunkEntry{
			Partition: partition,
			Info:      e.Info,
			LiveRows:  liveRows(e.Info.NumRows, e.Skips),
		})
	}
	return entries, nil
}

// liveRows yields every offset in [0, numRows) not present in the
// (ascending, deduplicated) skips slice.
func liveRows(numRows int32, skips []int64) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		si := 0
		for row := int64(0); row < int64(numRows); row++ {
			for si < len(skips) && skips[si] < row {
				si++
			}
			if si < len(skips) && skips[si] == row {
				continue
			}
			if !yield(row) {
				return
			}
		}
	}
}

// partitionID derives a stable cache/lookup key from an encoded partition
// key, since chunkidx.Cache and SplitEnumerator both deal in opaque
// BinaryRecord bytes rather than human-readable partition names.
func partitionID(key binrecord.Record) string {
	return hex.EncodeToString(key)
}

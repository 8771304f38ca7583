package ingestctl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"columnstore/internal/logging"
)

// stopGrace bounds how long Run waits for an in-flight write to finish
// once its context is cancelled before forcibly terminating.
const stopGrace = 3 * time.Second

// Controller gates writes to one (dataset, partition) until startup
// validation passes, then accepts chunked columnar writes one at a time —
// single-threaded with respect to its mailbox — updating shard bookkeeping
// and acknowledging each write in turn.
type Controller struct {
	dataset   string
	partition string
	columns   []string
	store     MetadataStore
	writer    Writer
	logger    *slog.Logger

	state State
}

// New validates (dataset, partition, columns) against store and returns the
// constructed Controller together with the startup Event: GoodToGo on
// success, or NoDatasetColumns / PartitionNotFound / UndefinedColumns on
// failure. On failure the controller is in the Rejected state and Run must
// not be called.
func New(ctx context.Context, dataset, partition string, columns []string, store MetadataStore, writer Writer, logger *slog.Logger) (*Controller, Event) {
	c := &Controller{
		dataset:   dataset,
		partition: partition,
		columns:   columns,
		store:     store,
		writer:    writer,
		logger:    logging.Default(logger).With("component", "ingestctl", "dataset", dataset, "partition", partition),
		state:     Initializing,
	}

	ds, err := store.GetDataset(ctx, dataset)
	if err != nil || len(ds.Columns) == 0 {
		c.state = Rejected
		c.logger.Info("ingester rejected: no dataset columns")
		return c, Event{Kind: NoDatasetColumns, Dataset: dataset}
	}

	if _, err := store.GetPartition(ctx, dataset, partition); err != nil {
		c.state = Rejected
		c.logger.Info("ingester rejected: partition not found")
		return c, Event{Kind: PartitionNotFound, Dataset: dataset, Partition: partition}
	}

	var missing []string
	for _, name := range columns {
		if _, ok := ds.Columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		c.state = Rejected
		c.logger.Info("ingester rejected: undefined columns", "missing", missing)
		return c, Event{Kind: UndefinedColumns, Dataset: dataset, Missing: missing}
	}

	c.state = Ready
	c.logger.Info("ingester ready")
	return c, Event{Kind: GoodToGo, Dataset: dataset, Partition: partition}
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Run processes inbound chunks from in until ctx is cancelled, emitting one
// Event per chunk to out. Stopping is the message-passing "Stop" signal:
// cancelling ctx requests a graceful stop, draining any chunk already in
// flight up to stopGrace before the controller forcibly terminates without
// acknowledging it. Run must only be called when State() == Ready.
func (c *Controller) Run(ctx context.Context, in <-chan ChunkedColumns, out chan<- Event) error {
	if c.state != Ready {
		return fmt.Errorf("ingestctl: Run called in state %s, want %s", c.state, Ready)
	}

	for {
		select {
		case <-ctx.Done():
			c.state = Stopped
			return nil
		case chunk, ok := <-in:
			if !ok {
				c.state = Stopped
				return nil
			}
			c.handleChunk(ctx, chunk, out)
		}
	}
}

func (c *Controller) handleChunk(ctx context.Context, chunk ChunkedColumns, out chan<- Event) {
	if chunk.Version < 0 || chunk.FirstRowID > chunk.LastRowID {
		c.emit(out, Event{Kind: ShardingError, Dataset: c.dataset, Partition: c.partition, RowID: chunk.AckRowID})
		return
	}

	// The write is detached from ctx: cancelling ctx only starts the
	// stopGrace window, after which the write is forcibly cancelled.
	writeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stopWatch := context.AfterFunc(ctx, func() { time.AfterFunc(stopGrace, cancel) })
	defer stopWatch()

	if err := c.writer.Write(writeCtx, c.dataset, c.partition, chunk); err != nil {
		if errors.Is(writeCtx.Err(), context.Canceled) {
			c.logger.Warn("write exceeded graceful-stop window, forcibly terminating", "row_id", chunk.AckRowID)
		}
		c.emit(out, Event{Kind: ShardingError, Dataset: c.dataset, Partition: c.partition, RowID: chunk.AckRowID})
		return
	}

	entry := ShardEntry{Version: chunk.Version, FirstRowID: chunk.FirstRowID, LastRowID: chunk.LastRowID, AckRowID: chunk.AckRowID}
	if err := c.store.UpdatePartitionShards(writeCtx, c.dataset, c.partition, entry); err != nil {
		c.emit(out, Event{Kind: ShardingError, Dataset: c.dataset, Partition: c.partition, RowID: chunk.AckRowID})
		return
	}

	c.emit(out, Event{Kind: Ack, Dataset: c.dataset, Partition: c.partition, RowID: chunk.AckRowID})
}

func (c *Controller) emit(out chan<- Event, ev Event) {
	select {
	case out <- ev:
	case <-time.After(stopGrace):
		c.logger.Warn("dropped event: consumer not draining", "kind", ev.Kind)
	}
}

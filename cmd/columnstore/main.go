// Command columnstore is a thin demonstration CLI over the predicate
// compiler and the ingester controller. It is not a production driver:
// CLI/driver integration beyond this demo is explicitly out of scope.
//
// Logging:
//   - Base logger is created here and passed down via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Per-component verbosity is adjustable at runtime via --debug-component,
//     filtered through logging.ComponentFilterHandler
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"columnstore/internal/chunkidx"
	"columnstore/internal/config"
	"columnstore/internal/executor"
	"columnstore/internal/ingestctl"
	"columnstore/internal/logging"
	"columnstore/internal/scanplan"
)

var version = "dev"

func main() {
	var debugComponents []string

	rootCmd := &cobra.Command{
		Use:   "columnstore",
		Short: "Partition chunk index and scan planner demo CLI",
	}
	rootCmd.PersistentFlags().StringArrayVar(&debugComponents, "debug-component", nil,
		"enable debug-level logging for a component (repeatable)")

	filter := logging.NewComponentFilterHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}), slog.LevelInfo)
	logger := slog.New(filter)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		for _, c := range debugComponents {
			filter.SetLevel(c, slog.LevelDebug)
		}
	}
	rootCmd.AddCommand(newPlanCmd(logger), newIngestCmd(logger), newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func newPlanCmd(logger *slog.Logger) *cobra.Command {
	var filterFlags []string
	var limit int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compile a filter list against the demo dataset into a scan plan and resolve it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := demoDataset()
			proj, err := ds.ToProjection(demoAllColumns)
			if err != nil {
				return fmt.Errorf("build projection: %w", err)
			}

			filters := make([]scanplan.Filter, 0, len(filterFlags))
			for _, raw := range filterFlags {
				f, err := parseFilter(raw)
				if err != nil {
					return err
				}
				filters = append(filters, f)
			}

			pscan, cscan, lines, err := scanplan.ExplainPlan(proj, filters, limit)
			if err != nil {
				return fmt.Errorf("compile plan: %w", err)
			}

			fmt.Println("partition scan:", pscan.Kind)
			fmt.Println("chunk scan:", cscan.Kind)
			fmt.Println("explain:")
			for _, l := range lines {
				fmt.Println(" ", l)
			}

			loader := chunkidx.NewSnapshotLoader(demoPartitionIndexLoader{}, newDemoSnapshotStore())
			cache, err := chunkidx.NewCache(8, loader, logger)
			if err != nil {
				return fmt.Errorf("build chunk index cache: %w", err)
			}
			entries, err := executor.Execute(cmd.Context(), cache, demoSplitEnumerator{}, ds.Name, chunkidx.RowKeyOrdered, pscan, cscan, logger)
			if err != nil {
				return fmt.Errorf("resolve plan: %w", err)
			}
			fmt.Println("resolved chunks:")
			for _, e := range entries {
				fmt.Printf("  partition=%s chunk=%s rows=%d\n", e.Partition, e.Info.ChunkID, e.Info.NumRows)
			}

			fmt.Println("partition stats:")
			for _, partition := range touchedPartitions(entries) {
				idx, err := cache.Get(cmd.Context(), ds.Name, partition, chunkidx.RowKeyOrdered)
				if err != nil {
					return fmt.Errorf("stats for %s: %w", partition, err)
				}
				stats := chunkidx.ComputeStats(idx)
				fmt.Printf("  partition=%s chunks=%d skips=%d rows=%d\n", partition, stats.NumChunks, stats.TotalSkips, stats.TotalRows)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&filterFlags, "filter", nil,
		`filter as "column:op:value" (op is one of eq,in,gt,gte,lt,lte; "in" takes comma-separated values)`)
	cmd.Flags().IntVar(&limit, "limit", config.DefaultInqueryPartitionsLimit, "inquery partitions limit")
	return cmd
}

func parseFilter(raw string) (scanplan.Filter, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return scanplan.Filter{}, fmt.Errorf("invalid filter %q, want column:op:value", raw)
	}
	column, op, value := parts[0], parts[1], parts[2]

	switch op {
	case "eq":
		return scanplan.Filter{Column: column, Op: scanplan.EqualTo, Value: value}, nil
	case "in":
		raws := strings.Split(value, ",")
		values := make([]any, len(raws))
		for i, v := range raws {
			values[i] = v
		}
		return scanplan.Filter{Column: column, Op: scanplan.In, Values: values}, nil
	case "gt":
		return scanplan.Filter{Column: column, Op: scanplan.GreaterThan, Value: value}, nil
	case "gte":
		return scanplan.Filter{Column: column, Op: scanplan.GreaterThanOrEqual, Value: value}, nil
	case "lt":
		return scanplan.Filter{Column: column, Op: scanplan.LessThan, Value: value}, nil
	case "lte":
		return scanplan.Filter{Column: column, Op: scanplan.LessThanOrEqual, Value: value}, nil
	default:
		return scanplan.Filter{}, fmt.Errorf("unknown filter op %q in %q", op, raw)
	}
}

func newIngestCmd(logger *slog.Logger) *cobra.Command {
	var partition string
	var firstRow, lastRow int64

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Drive the ingester controller against an in-memory demo backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			store := newDemoStore()
			store.registerDataset("gdelt", demoDataset())
			store.registerPartition("gdelt", partition)
			writer := newDemoWriter(logger)

			ctrl, startup := ingestctl.New(ctx, "gdelt", partition, []string{"actor1Code", "year"}, store, writer, logger)
			fmt.Println("startup:", startup.Kind)
			if ctrl.State() != ingestctl.Ready {
				return fmt.Errorf("ingester rejected: %s", startup.Kind)
			}

			in := make(chan ingestctl.ChunkedColumns, 1)
			out := make(chan ingestctl.Event, 1)
			in <- ingestctl.ChunkedColumns{
				Version:    1,
				FirstRowID: firstRow,
				LastRowID:  lastRow,
				AckRowID:   lastRow,
				Columns: map[string][]byte{
					"actor1Code": []byte("USA"),
				},
			}
			close(in)

			runErr := make(chan error, 1)
			go func() {
				err := ctrl.Run(ctx, in, out)
				close(out)
				runErr <- err
			}()

			for ev := range out {
				fmt.Println("event:", ev.Kind, "row_id:", ev.RowID)
			}
			return <-runErr
		},
	}

	cmd.Flags().StringVar(&partition, "partition", "USA", "partition to ingest into")
	cmd.Flags().Int64Var(&firstRow, "first-row", 0, "first row id of the demo chunk")
	cmd.Flags().Int64Var(&lastRow, "last-row", 99, "last row id of the demo chunk")
	return cmd
}

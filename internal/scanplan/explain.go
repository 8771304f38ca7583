package scanplan

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"columnstore/internal/projection"
)

// traceHandler is a throwaway slog.Handler that stringifies every record
// handed to it instead of writing anywhere; ExplainPlan uses it to recover
// Compile's debug diagnostics as data instead of only as log output.
type traceHandler struct {
	lines *[]string
}

func (traceHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h traceHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&buf, " %s=%v", a.Key, a.Value)
		return true
	})
	*h.lines = append(*h.lines, buf.String())
	return nil
}

func (h traceHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h traceHandler) WithGroup(string) slog.Handler      { return h }

// ExplainPlan compiles filters exactly as Compile does, additionally
// returning a human-readable trace: every diagnostic Compile logs while
// degrading the plan (a partition filter that is not pushable, too many
// partition combinations, a gapped or unsupported row-key prefix),
// followed by the resulting partition and chunk scan kinds. Filters that
// were pushed down successfully are not listed one by one. This surfaces
// the compiler's degradation diagnostics (normally only logged at debug
// level) as inspectable data.
func ExplainPlan(proj *projection.RichProjection, filters []Filter, inqueryPartitionsLimit int) (PartitionScanMethod, ChunkScanMethod, []string, error) {
	var lines []string
	traced := slog.New(traceHandler{lines: &lines})

	pscan, cscan, err := Compile(proj, filters, inqueryPartitionsLimit, traced)
	if err != nil {
		lines = append(lines, fmt.Sprintf("compile failed: %v", err))
		return pscan, cscan, lines, err
	}

	lines = append(lines,
		fmt.Sprintf("partition scan: %s", pscan.Kind),
		fmt.Sprintf("chunk scan: %s", cscan.Kind),
	)
	return pscan, cscan, lines, nil
}

package scanplan

import (
	"log/slog"

	"columnstore/internal/binrecord"
	"columnstore/internal/keytype"
	"columnstore/internal/logging"
	"columnstore/internal/projection"
)

// Compile translates filters over proj's partition-key and row-key columns
// into a scan plan. inqueryPartitionsLimit caps the number of partition-key
// combinations the compiler will enumerate as a Multi plan; above the cap
// it degrades to Filtered. A nil logger discards output;
// Compile logs non-fatal degradations (unpushable filter, gapped row-key
// prefix, combinations above the cap) at debug level rather than failing
// the query.
func Compile(proj *projection.RichProjection, filters []Filter, inqueryPartitionsLimit int, logger *slog.Logger) (PartitionScanMethod, ChunkScanMethod, error) {
	logger = logging.Default(logger).With("component", "scanplan.compile")
	grouped := groupByColumn(filters)

	partitionScan, err := compilePartitionScan(proj, grouped, inqueryPartitionsLimit, logger)
	if err != nil {
		return PartitionScanMethod{}, ChunkScanMethod{}, err
	}

	chunkScan, err := compileChunkScan(proj, grouped, logger)
	if err != nil {
		return PartitionScanMethod{}, ChunkScanMethod{}, err
	}

	return partitionScan, chunkScan, nil
}

// pushableSet is the parsed set of values a single partition-key column's
// filters contribute to the enumeration. ok is false when the column's
// filters can't be pushed down (anything but a lone Eq or a lone In).
func pushableSet(t keytype.Code, filters []Filter) (values []any, ok bool) {
	if len(filters) != 1 {
		return nil, false
	}
	f := filters[0]
	switch f.Op {
	case EqualTo:
		v, err := keytype.ParseSingleValue(t, f.Value)
		if err != nil {
			return nil, false
		}
		return []any{v}, true
	case In:
		vs, err := keytype.ParseValues(t, f.Values)
		if err != nil {
			return nil, false
		}
		return vs, true
	default:
		return nil, false
	}
}

func compilePartitionScan(proj *projection.RichProjection, grouped map[string][]Filter, limit int, logger *slog.Logger) (PartitionScanMethod, error) {
	cols := proj.PartitionKey
	sets := make([][]any, len(cols))
	everyPushable := true

	for i, c := range cols {
		vs, ok := pushableSet(c.Type, grouped[c.Name])
		if !ok {
			everyPushable = false
			if len(grouped[c.Name]) > 0 {
				logger.Debug("partition column filter not pushable, falling back to filtered scan", "column", c.Name)
			}
			continue
		}
		sets[i] = vs
	}

	if everyPushable {
		combos, aborted := cartesianProduct(sets, limit)
		switch {
		case len(combos) == 1:
			key, err := binrecord.Encode(proj.PartitionKeyLayout(), combos[0])
			if err != nil {
				return PartitionScanMethod{}, err
			}
			return PartitionScanMethod{Kind: Single, Key: key}, nil
		case !aborted && len(combos) > 1:
			keys := make([]binrecord.Record, len(combos))
			for i, combo := range combos {
				key, err := binrecord.Encode(proj.PartitionKeyLayout(), combo)
				if err != nil {
					return PartitionScanMethod{}, err
				}
				keys[i] = key
			}
			return PartitionScanMethod{Kind: Multi, Keys: keys}, nil
		default:
			logger.Debug("partition combination count exceeds limit, falling back to filtered scan", "limit", limit)
		}
	}

	residual, err := buildResidualPredicate(proj, grouped)
	if err != nil {
		return PartitionScanMethod{}, err
	}
	return PartitionScanMethod{Kind: Filtered, Residual: residual}, nil
}

// cartesianProduct computes the product of sets in declared column order,
// aborting as soon as the running size exceeds limit so the full product
// is never materialized just to decide on a fallback. aborted is true when
// the cap was exceeded.
func cartesianProduct(sets [][]any, limit int) (combos [][]any, aborted bool) {
	combos = [][]any{{}}
	for _, set := range sets {
		var next [][]any
		for _, combo := range combos {
			for _, v := range set {
				extended := make([]any, len(combo)+1)
				copy(extended, combo)
				extended[len(combo)] = v
				next = append(next, extended)
				if len(next) > limit {
					return nil, true
				}
			}
		}
		combos = next
	}
	return combos, false
}

// buildResidualPredicate compiles a per-column predicate for every
// partition column carrying a filter, combined via logical AND. A
// partition column filter shaped as anything but Eq/In is
// UnsupportedFilterError: it can neither be pushed into enumeration nor
// folded into a residual check.
func buildResidualPredicate(proj *projection.RichProjection, grouped map[string][]Filter) (ResidualPredicate, error) {
	type columnCheck struct {
		pos   int
		check func(v any) bool
	}
	var checks []columnCheck

	for _, c := range proj.PartitionKey {
		fs := grouped[c.Name]
		if len(fs) == 0 {
			continue
		}
		if len(fs) != 1 {
			return nil, &UnsupportedFilterError{Filter: fs[0]}
		}
		f := fs[0]
		pos := proj.PartitionColumnPosition(c.Name)
		switch f.Op {
		case EqualTo:
			v, err := keytype.ParseSingleValue(c.Type, f.Value)
			if err != nil {
				return nil, err
			}
			checks = append(checks, columnCheck{pos: pos, check: func(x any) bool {
				return keytype.Compare(c.Type, x, v) == keytype.Equal
			}})
		case In:
			vs, err := keytype.ParseValues(c.Type, f.Values)
			if err != nil {
				return nil, err
			}
			checks = append(checks, columnCheck{pos: pos, check: func(x any) bool {
				for _, v := range vs {
					if keytype.Compare(c.Type, x, v) == keytype.Equal {
						return true
					}
				}
				return false
			}})
		default:
			return nil, &UnsupportedFilterError{Filter: f}
		}
	}

	if len(checks) == 0 {
		return func(binrecord.Record) bool { return true }, nil
	}

	layout := proj.PartitionKeyLayout()
	return func(key binrecord.Record) bool {
		values, err := binrecord.Decode(layout, key)
		if err != nil {
			return false
		}
		for _, c := range checks {
			if !c.check(values[c.pos]) {
				return false
			}
		}
		return true
	}, nil
}

// compileChunkScan implements §4.4 step 5: row-key range pushdown. A
// gapped prefix or an unsupported filter shape degrades to All with a
// logged diagnostic rather than failing the query — row-key pushdown is a
// pruning optimization, never a correctness requirement.
func compileChunkScan(proj *projection.RichProjection, grouped map[string][]Filter, logger *slog.Logger) (ChunkScanMethod, error) {
	cols := proj.RowKey
	if len(cols) == 0 {
		return ChunkScanMethod{Kind: All}, nil
	}

	maxFiltered := -1
	for i, c := range cols {
		if len(grouped[c.Name]) > 0 {
			maxFiltered = i
		}
	}
	if maxFiltered == -1 {
		return ChunkScanMethod{Kind: All}, nil
	}

	// Prefix validity: every position 0..maxFiltered must carry a filter.
	for i := 0; i <= maxFiltered; i++ {
		if len(grouped[cols[i].Name]) == 0 {
			logger.Debug("gapped row-key prefix, falling back to full chunk scan", "column", cols[i].Name)
			return ChunkScanMethod{Kind: All}, nil
		}
	}

	low := make([]any, maxFiltered+1)
	high := make([]any, maxFiltered+1)

	for i := 0; i < maxFiltered; i++ {
		fs := grouped[cols[i].Name]
		if len(fs) != 1 || fs[0].Op != EqualTo {
			logger.Debug("row-key prefix position requires a lone equality filter, falling back to full chunk scan", "column", cols[i].Name)
			return ChunkScanMethod{Kind: All}, nil
		}
		v, err := keytype.ParseSingleValue(cols[i].Type, fs[0].Value)
		if err != nil {
			return ChunkScanMethod{}, err
		}
		low[i], high[i] = v, v
	}

	tailCol := cols[maxFiltered]
	tailFilters := grouped[tailCol.Name]
	switch {
	case len(tailFilters) == 1 && tailFilters[0].Op == EqualTo:
		v, err := keytype.ParseSingleValue(tailCol.Type, tailFilters[0].Value)
		if err != nil {
			return ChunkScanMethod{}, err
		}
		low[maxFiltered], high[maxFiltered] = v, v
	case len(tailFilters) == 2:
		lo, hi, ok := pairedBound(tailFilters)
		if !ok {
			logger.Debug("row-key tail position has an unsupported filter shape, falling back to full chunk scan", "column", tailCol.Name)
			return ChunkScanMethod{Kind: All}, nil
		}
		loVal, err := keytype.ParseSingleValue(tailCol.Type, lo.Value)
		if err != nil {
			return ChunkScanMethod{}, err
		}
		hiVal, err := keytype.ParseSingleValue(tailCol.Type, hi.Value)
		if err != nil {
			return ChunkScanMethod{}, err
		}
		low[maxFiltered], high[maxFiltered] = loVal, hiVal
	default:
		logger.Debug("row-key tail position has an unsupported filter shape, falling back to full chunk scan", "column", tailCol.Name)
		return ChunkScanMethod{Kind: All}, nil
	}

	first, err := proj.EncodeRowKeyPrefix(low)
	if err != nil {
		return ChunkScanMethod{}, err
	}
	last, err := proj.EncodeRowKeyPrefix(high)
	if err != nil {
		return ChunkScanMethod{}, err
	}
	return ChunkScanMethod{Kind: RowKeyRange, First: first, Last: last}, nil
}

// pairedBound recognizes a two-filter tail position as one lower bound
// (Gt or Gte) paired with one upper bound (Lt or Lte). Open endpoints are
// represented as inclusive bounds over the encoded domain; exactness at
// the boundary is enforced by row-level filtering downstream, not by the
// chunk-range encoding itself.
func pairedBound(fs []Filter) (lo, hi Filter, ok bool) {
	var haveLo, haveHi bool
	for _, f := range fs {
		switch f.Op {
		case GreaterThan, GreaterThanOrEqual:
			if haveLo {
				return Filter{}, Filter{}, false
			}
			lo, haveLo = f, true
		case LessThan, LessThanOrEqual:
			if haveHi {
				return Filter{}, Filter{}, false
			}
			hi, haveHi = f, true
		default:
			return Filter{}, Filter{}, false
		}
	}
	return lo, hi, haveLo && haveHi
}

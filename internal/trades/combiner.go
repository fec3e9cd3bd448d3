package trades

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Processor runs the per-instrument load pipeline and merges the survivors
// into one time-ordered multi-instrument set.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a trade processor.
func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger}
}

// LoadAndProcess runs Loader -> direction filter -> contract multiplier for
// each selected instrument and concatenates the surviving sets, re-sorted
// ascending by entry time.
//
// One instrument's failure never aborts the batch: it is recorded as a
// failed InstrumentResult and processing continues with the remaining
// instruments. Selecting zero instruments, or every instrument failing,
// yields an empty combined set, not an error. Instruments whose pipeline
// succeeds but produces zero trades are logged and omitted.
func (p *Processor) LoadAndProcess(
	ctx context.Context,
	instruments map[string]InstrumentFiles,
	selected []string,
	directions map[string]DirectionMode,
	contracts map[string]int,
	start, end time.Time,
) (map[string]InstrumentResult, *TradeSet) {
	results := make(map[string]InstrumentResult)
	combined := &TradeSet{}

	selectedSet := make(map[string]bool, len(selected))
	for _, name := range selected {
		selectedSet[name] = true
	}

	// Deterministic processing order.
	names := make([]string, 0, len(instruments))
	for name := range instruments {
		if selectedSet[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		files := instruments[name]

		multiplier := contracts[name]
		if multiplier == 0 {
			multiplier = 1
		}
		mode, ok := directions[name]
		if !ok {
			mode = DirectionAll
		}

		set, err := p.processInstrument(files.Trades, mode, multiplier, start, end)
		if err != nil {
			// Record and continue; siblings must not be affected.
			p.logger.WarnContext(ctx, "instrument pipeline failed",
				slog.String("instrument", name),
				slog.String("source", files.Trades),
				slog.String("error", err.Error()),
			)
			results[name] = InstrumentResult{Instrument: name, Contracts: multiplier, Err: err}
			continue
		}

		if set.Empty() {
			p.logger.DebugContext(ctx, "instrument has no trades in range",
				slog.String("instrument", name),
			)
			continue
		}

		for i := range set.Trades {
			set.Trades[i].Instrument = name
			set.Trades[i].Contracts = multiplier
		}

		results[name] = InstrumentResult{Instrument: name, Contracts: multiplier, Set: set}
		combined.Trades = append(combined.Trades, set.Trades...)
		if set.HasPosition {
			combined.HasPosition = true
		}
	}

	sort.SliceStable(combined.Trades, func(i, j int) bool {
		return combined.Trades[i].EntryTime.Before(combined.Trades[j].EntryTime)
	})

	p.logger.InfoContext(ctx, "combined instrument trades",
		slog.Int("selected", len(names)),
		slog.Int("loaded", len(results)),
		slog.Int("combined_trades", combined.Len()),
	)

	return results, combined
}

func (p *Processor) processInstrument(path string, mode DirectionMode, multiplier int, start, end time.Time) (*TradeSet, error) {
	set, err := LoadAndFilter(path, start, end)
	if err != nil {
		return nil, err
	}
	set = FilterByDirection(set, mode)
	set = ApplyContractMultiplier(set, multiplier)
	return set, nil
}

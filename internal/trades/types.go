package trades

import (
	"time"
)

// EntryTimeLayout is the timestamp format used by the trade export files.
const EntryTimeLayout = "02/01/2006 15:04:05"

// DateLayout is the format accepted for start/end date arguments.
const DateLayout = "02/01/2006"

// Amount is a numeric cell parsed from a currency-formatted column.
// Valid is false when the source text did not parse; invalid amounts are
// kept on the row (the row is not dropped) and excluded from aggregation.
type Amount struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Num builds a valid Amount.
func Num(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// MarketPosition is the direction of a trade.
type MarketPosition string

const (
	PositionLong  MarketPosition = "Long"
	PositionShort MarketPosition = "Short"
	PositionUnset MarketPosition = ""
)

// DirectionMode selects which trade directions survive filtering.
type DirectionMode string

const (
	DirectionAll       DirectionMode = "all"
	DirectionLongOnly  DirectionMode = "long"
	DirectionShortOnly DirectionMode = "short"
)

// TradeRecord is one normalized trade execution row.
type TradeRecord struct {
	EntryTime time.Time `json:"entry_time"`
	ExitTime  time.Time `json:"exit_time"`

	Profit       Amount `json:"profit"`
	MAE          Amount `json:"mae"`
	MFE          Amount `json:"mfe"`
	ETD          Amount `json:"etd"`
	Commission   Amount `json:"commission"`
	ClearingFee  Amount `json:"clearing_fee"`
	ExchangeFee  Amount `json:"exchange_fee"`
	IPFee        Amount `json:"ip_fee"`
	NFAFee       Amount `json:"nfa_fee"`
	CumNetProfit Amount `json:"cum_net_profit"`

	Position MarketPosition `json:"position"`
	Bars     Amount         `json:"bars"`

	// Instrument and Contracts are stamped by the combiner.
	Instrument string `json:"instrument"`
	Contracts  int    `json:"contracts"`
}

// HoldingTime returns the entry-to-exit duration and whether both
// timestamps are present.
func (r TradeRecord) HoldingTime() (time.Duration, bool) {
	if r.EntryTime.IsZero() || r.ExitTime.IsZero() {
		return 0, false
	}
	return r.ExitTime.Sub(r.EntryTime), true
}

// TradeSet is an ordered collection of trade records. Canonical order is
// ascending entry time. Sets are treated as immutable once produced:
// filtering and scaling return new sets (or the identical set when the
// operation is a no-op).
type TradeSet struct {
	Trades []TradeRecord `json:"trades"`

	// HasPosition records whether the source carried a "Market pos."
	// column. Direction filtering is a no-op without it.
	HasPosition bool `json:"has_position"`
}

// Len returns the number of trades in the set.
func (s *TradeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Trades)
}

// Empty reports whether the set has no trades.
func (s *TradeSet) Empty() bool {
	return s.Len() == 0
}

// Profits extracts the profit column in set order. Invalid amounts
// contribute zero; they count as neither winners nor losers downstream.
func (s *TradeSet) Profits() []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s.Trades))
	for i, r := range s.Trades {
		if r.Profit.Valid {
			out[i] = r.Profit.Value
		}
	}
	return out
}

// InstrumentFiles locates the two source files backing one instrument.
// Owned by the registry; consumed read-only here.
type InstrumentFiles struct {
	Trades  string `json:"trades"`
	Summary string `json:"summary"`
}

// InstrumentResult is the outcome of one instrument's load pipeline.
// Exactly one of Set or Err is populated: a failed instrument is recorded
// here instead of aborting the batch.
type InstrumentResult struct {
	Instrument string    `json:"instrument"`
	Contracts  int       `json:"contracts"`
	Set        *TradeSet `json:"-"`
	Err        error     `json:"-"`
}

// Failed reports whether this instrument's pipeline errored.
func (r InstrumentResult) Failed() bool {
	return r.Err != nil
}

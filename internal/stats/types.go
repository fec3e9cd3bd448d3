package stats

import (
	"time"
)

// Report is the fixed-shape battery of trading-performance statistics for
// one trade set. It is stateless and recomputed per call; an empty set
// produces the zero Report, never an error. Field names are stable: any
// display-oriented key sanitization belongs to the presentation layer.
type Report struct {
	Instrument string `json:"instrument,omitempty"`

	TotalNetProfit float64 `json:"total_net_profit"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`

	TradeCount int     `json:"trade_count"`
	WinCount   int     `json:"win_count"`
	LossCount  int     `json:"loss_count"`
	WinRate    float64 `json:"win_rate"`

	AvgTrade     float64 `json:"avg_trade"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	WinLossRatio float64 `json:"win_loss_ratio"`

	// ProfitFactor is |gross profit / gross loss|. When there are no
	// losses the mathematically infinite value is reported as 0 so
	// downstream totals stay finite. That discards the all-wins signal;
	// kept deliberately rather than changing the displayed semantics.
	ProfitFactor float64 `json:"profit_factor"`

	LargestWin  float64 `json:"largest_win"`
	LargestLoss float64 `json:"largest_loss"`

	MaxDrawdown          float64 `json:"max_drawdown"`
	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`

	Expectancy float64 `json:"expectancy"`

	AvgHoldingMinutes float64 `json:"avg_holding_minutes"`
	AvgBarsInTrade    float64 `json:"avg_bars_in_trade"`

	// SharpeRatio is the simplified per-trade ratio
	// mean(profit)/stdev(profit) scaled by sqrt(252). It mixes trade-level
	// variance with a calendar-day annualization constant and is not a
	// true per-period Sharpe; preserved as a documented simplification.
	SharpeRatio float64 `json:"sharpe_ratio"`

	MaxTimeToRecover time.Duration `json:"max_time_to_recover"`
	MaxFlatPeriod    time.Duration `json:"max_flat_period"`
	AvgFlatPeriod    time.Duration `json:"avg_flat_period"`
	PctTimeInMarket  float64       `json:"pct_time_in_market"`
}

// EquityPoint is one step of the equity curve: the running prefix sum of
// profit in set order, realized at the trade's exit time.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// WeekdayStats is one non-empty weekday bucket of the day-of-week
// breakdown. Weekdays with zero trades are omitted entirely.
type WeekdayStats struct {
	Day time.Weekday `json:"-"`

	DayName        string  `json:"day"`
	TotalNetProfit float64 `json:"total_net_profit"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	TradeCount     int     `json:"trade_count"`
	WinCount       int     `json:"win_count"`
	LossCount      int     `json:"loss_count"`
	WinRate        float64 `json:"win_rate"`
	AvgTrade       float64 `json:"avg_trade"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	ProfitFactor   float64 `json:"profit_factor"`
}

// BucketDetail describes one concurrency bucket: a calendar day or a
// 5-minute window, the distinct instruments entered in it, and its total
// profit.
type BucketDetail struct {
	Bucket          time.Time `json:"bucket"`
	Instruments     []string  `json:"instruments"`
	InstrumentCount int       `json:"instrument_count"`
	Profit          float64   `json:"profit"`
}

// ProfitByCount aggregates bucket profit grouped by how many distinct
// instruments the bucket contained.
type ProfitByCount struct {
	InstrumentCount int     `json:"instrument_count"`
	Buckets         int     `json:"buckets"`
	AvgProfit       float64 `json:"avg_profit"`
	TotalProfit     float64 `json:"total_profit"`
}

// ConcurrencyReport summarizes cross-instrument concurrency over a set of
// time buckets (days or 5-minute windows).
type ConcurrencyReport struct {
	TotalBuckets   int     `json:"total_buckets"`
	MaxInstruments int     `json:"max_instruments"`
	MinInstruments int     `json:"min_instruments"`
	AvgInstruments float64 `json:"avg_instruments"`

	// MaxBuckets lists the buckets achieving MaxInstruments with their
	// sorted instrument sets. The 5-minute variant keeps only the first
	// 10 in ascending bucket order.
	MaxBuckets []BucketDetail `json:"max_buckets"`

	// Distribution maps instrument-count to the number of buckets with
	// that count.
	Distribution map[int]int `json:"distribution"`

	ProfitByCount []ProfitByCount `json:"profit_by_count"`

	// Details is the per-bucket table. Daily buckets are listed in full,
	// ascending by date; the 5-minute variant keeps the top 50 ranked by
	// instrument count descending.
	Details []BucketDetail `json:"details"`
}

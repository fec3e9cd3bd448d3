package stats

import (
	"math"

	"tradepulse/internal/trades"
)

// annualizationFactor scales the per-trade Sharpe ratio by the square root
// of the trading days in a year.
var annualizationFactor = math.Sqrt(252)

// Compute calculates the full statistics report for a trade set, plus the
// equity curve and drawdown series aligned index-for-index with the set's
// order. An empty set returns the zero report and nil series.
func Compute(set *trades.TradeSet) (Report, []EquityPoint, []float64) {
	if set.Empty() {
		return Report{}, nil, nil
	}

	profits := set.Profits()
	n := len(profits)

	var report Report
	report.TradeCount = n

	for _, p := range profits {
		report.TotalNetProfit += p
		switch {
		case p > 0:
			report.GrossProfit += p
			report.WinCount++
		case p < 0:
			report.GrossLoss += p
			report.LossCount++
		}
	}
	report.WinRate = float64(report.WinCount) / float64(n) * 100

	report.AvgTrade = report.TotalNetProfit / float64(n)
	if report.WinCount > 0 {
		report.AvgWin = report.GrossProfit / float64(report.WinCount)
	}
	if report.LossCount > 0 {
		report.AvgLoss = report.GrossLoss / float64(report.LossCount)
	}
	if report.AvgLoss != 0 {
		report.WinLossRatio = math.Abs(report.AvgWin / report.AvgLoss)
	}

	if report.GrossLoss != 0 {
		report.ProfitFactor = math.Abs(report.GrossProfit / report.GrossLoss)
	}
	// gross loss of zero with positive gross profit would be infinite;
	// suppressed to 0 (see Report.ProfitFactor).

	report.LargestWin = profits[0]
	report.LargestLoss = profits[0]
	for _, p := range profits[1:] {
		if p > report.LargestWin {
			report.LargestWin = p
		}
		if p < report.LargestLoss {
			report.LargestLoss = p
		}
	}

	equity := make([]EquityPoint, n)
	drawdown := make([]float64, n)
	sum := 0.0
	runningMax := math.Inf(-1)
	for i, p := range profits {
		sum += p
		if sum > runningMax {
			runningMax = sum
		}
		equity[i] = EquityPoint{Time: set.Trades[i].ExitTime, Equity: sum}
		drawdown[i] = sum - runningMax
		if drawdown[i] < report.MaxDrawdown {
			report.MaxDrawdown = drawdown[i]
		}
	}

	report.MaxConsecutiveWins = maxConsecutive(profits, true)
	report.MaxConsecutiveLosses = maxConsecutive(profits, false)

	winFrac := report.WinRate / 100
	report.Expectancy = winFrac*report.AvgWin - (1-winFrac)*math.Abs(report.AvgLoss)

	report.AvgHoldingMinutes = avgHoldingMinutes(set)
	report.AvgBarsInTrade = avgBars(set)

	if n > 1 {
		if sd := populationStdev(profits, report.AvgTrade); sd != 0 {
			report.SharpeRatio = report.AvgTrade / sd * annualizationFactor
		}
	}

	report.MaxTimeToRecover = maxTimeToRecover(equity)
	report.MaxFlatPeriod, report.AvgFlatPeriod = flatPeriods(set)
	report.PctTimeInMarket = pctTimeInMarket(set)

	return report, equity, drawdown
}

// maxConsecutive runs a single linear pass over the profit sequence: the
// counter increments on a match (profit>0 for winners, profit<0 for
// losers) and resets otherwise; the maximum observed value is the result.
func maxConsecutive(profits []float64, winners bool) int {
	maxRun, run := 0, 0
	for _, p := range profits {
		match := p > 0
		if !winners {
			match = p < 0
		}
		if match {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 0
		}
	}
	return maxRun
}

// avgHoldingMinutes is the mean entry-to-exit duration in minutes over the
// rows where both timestamps are present. Rows missing a timestamp are
// excluded from the mean, not treated as zero.
func avgHoldingMinutes(set *trades.TradeSet) float64 {
	total := 0.0
	count := 0
	for _, r := range set.Trades {
		if d, ok := r.HoldingTime(); ok {
			total += d.Minutes()
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// avgBars is the mean bar count over rows where the optional Bars column
// parsed; 0 when the column is absent.
func avgBars(set *trades.TradeSet) float64 {
	total := 0.0
	count := 0
	for _, r := range set.Trades {
		if r.Bars.Valid {
			total += r.Bars.Value
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func populationStdev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

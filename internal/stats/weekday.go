package stats

import (
	"math"
	"time"

	"tradepulse/internal/trades"
)

// weekdayOrder lists buckets Monday through Sunday, the order the
// breakdown is reported in.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// DayOfWeekBreakdown partitions trades into weekday buckets by entry time
// and recomputes the aggregate profitability metrics per bucket. Only
// non-empty buckets are reported, ordered Monday through Sunday.
func DayOfWeekBreakdown(set *trades.TradeSet) []WeekdayStats {
	if set.Empty() {
		return nil
	}

	buckets := make(map[time.Weekday][]float64)
	for _, r := range set.Trades {
		day := r.EntryTime.Weekday()
		var p float64
		if r.Profit.Valid {
			p = r.Profit.Value
		}
		buckets[day] = append(buckets[day], p)
	}

	var out []WeekdayStats
	for _, day := range weekdayOrder {
		profits, ok := buckets[day]
		if !ok {
			continue
		}
		out = append(out, weekdayStats(day, profits))
	}
	return out
}

func weekdayStats(day time.Weekday, profits []float64) WeekdayStats {
	ws := WeekdayStats{
		Day:        day,
		DayName:    day.String(),
		TradeCount: len(profits),
	}
	for _, p := range profits {
		ws.TotalNetProfit += p
		switch {
		case p > 0:
			ws.GrossProfit += p
			ws.WinCount++
		case p < 0:
			ws.GrossLoss += p
			ws.LossCount++
		}
	}
	ws.WinRate = float64(ws.WinCount) / float64(ws.TradeCount) * 100
	ws.AvgTrade = ws.TotalNetProfit / float64(ws.TradeCount)
	if ws.WinCount > 0 {
		ws.AvgWin = ws.GrossProfit / float64(ws.WinCount)
	}
	if ws.LossCount > 0 {
		ws.AvgLoss = ws.GrossLoss / float64(ws.LossCount)
	}
	if ws.GrossLoss != 0 {
		ws.ProfitFactor = math.Abs(ws.GrossProfit / ws.GrossLoss)
	}
	return ws
}

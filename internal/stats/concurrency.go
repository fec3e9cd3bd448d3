package stats

import (
	"sort"
	"time"

	"tradepulse/internal/trades"
)

const (
	// windowSize is the bucket width for the 5-minute concurrency variant.
	windowSize = 5 * time.Minute

	// maxWindowDetail caps the "windows achieving the max" list for the
	// 5-minute variant; maxDetailRows caps its full detail table.
	maxWindowDetail = 10
	maxDetailRows   = 50
)

// DailyConcurrency groups trades by entry calendar date and reports how
// many distinct instruments were traded per day, with profit broken down
// by instrument count.
func DailyConcurrency(set *trades.TradeSet) ConcurrencyReport {
	return concurrency(set, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}, false)
}

// WindowConcurrency is the same analysis with entry times floored down to
// the nearest preceding 5-minute boundary. For display economy the
// max-achieving list keeps the first 10 windows and the detail table the
// top 50 windows by instrument count.
func WindowConcurrency(set *trades.TradeSet) ConcurrencyReport {
	return concurrency(set, func(t time.Time) time.Time {
		return t.Truncate(windowSize)
	}, true)
}

type bucketAgg struct {
	instruments map[string]struct{}
	profit      float64
}

func concurrency(set *trades.TradeSet, bucketOf func(time.Time) time.Time, limited bool) ConcurrencyReport {
	if set.Empty() {
		return ConcurrencyReport{Distribution: map[int]int{}}
	}

	buckets := make(map[time.Time]*bucketAgg)
	for _, r := range set.Trades {
		key := bucketOf(r.EntryTime)
		agg, ok := buckets[key]
		if !ok {
			agg = &bucketAgg{instruments: make(map[string]struct{})}
			buckets[key] = agg
		}
		agg.instruments[r.Instrument] = struct{}{}
		if r.Profit.Valid {
			agg.profit += r.Profit.Value
		}
	}

	keys := make([]time.Time, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	report := ConcurrencyReport{
		TotalBuckets: len(keys),
		Distribution: make(map[int]int),
	}

	details := make([]BucketDetail, 0, len(keys))
	countSum := 0
	for i, key := range keys {
		agg := buckets[key]
		count := len(agg.instruments)

		names := make([]string, 0, count)
		for name := range agg.instruments {
			names = append(names, name)
		}
		sort.Strings(names)

		details = append(details, BucketDetail{
			Bucket:          key,
			Instruments:     names,
			InstrumentCount: count,
			Profit:          agg.profit,
		})

		countSum += count
		report.Distribution[count]++
		if i == 0 || count > report.MaxInstruments {
			report.MaxInstruments = count
		}
		if i == 0 || count < report.MinInstruments {
			report.MinInstruments = count
		}
	}
	report.AvgInstruments = float64(countSum) / float64(len(keys))

	// Buckets achieving the max, in ascending bucket order.
	for _, d := range details {
		if d.InstrumentCount == report.MaxInstruments {
			report.MaxBuckets = append(report.MaxBuckets, d)
			if limited && len(report.MaxBuckets) == maxWindowDetail {
				break
			}
		}
	}

	report.ProfitByCount = profitByCount(details)

	if limited {
		// Top rows by instrument count descending; stable so equal counts
		// stay in ascending bucket order.
		ranked := make([]BucketDetail, len(details))
		copy(ranked, details)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].InstrumentCount > ranked[j].InstrumentCount
		})
		if len(ranked) > maxDetailRows {
			ranked = ranked[:maxDetailRows]
		}
		report.Details = ranked
	} else {
		report.Details = details
	}

	return report
}

func profitByCount(details []BucketDetail) []ProfitByCount {
	byCount := make(map[int]*ProfitByCount)
	for _, d := range details {
		agg, ok := byCount[d.InstrumentCount]
		if !ok {
			agg = &ProfitByCount{InstrumentCount: d.InstrumentCount}
			byCount[d.InstrumentCount] = agg
		}
		agg.Buckets++
		agg.TotalProfit += d.Profit
	}

	counts := make([]int, 0, len(byCount))
	for count := range byCount {
		counts = append(counts, count)
	}
	sort.Ints(counts)

	out := make([]ProfitByCount, 0, len(counts))
	for _, count := range counts {
		agg := byCount[count]
		agg.AvgProfit = agg.TotalProfit / float64(agg.Buckets)
		out = append(out, *agg)
	}
	return out
}

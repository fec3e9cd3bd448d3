package stats

import (
	"math"
	"sort"
	"time"

	"tradepulse/internal/trades"
)

// maxTimeToRecover walks the (exit time, equity) pairs tracking a running
// peak. Each time equity exceeds the current peak, the elapsed time since
// the prior peak is a recovery; the maximum such elapsed time is returned.
// The very first peak contributes no duration.
func maxTimeToRecover(equity []EquityPoint) time.Duration {
	var longest time.Duration
	peak := math.Inf(-1)
	var peakTime time.Time
	havePeak := false

	for _, pt := range equity {
		if pt.Equity > peak {
			if havePeak {
				if d := pt.Time.Sub(peakTime); d > longest {
					longest = d
				}
			}
			peak = pt.Equity
			peakTime = pt.Time
			havePeak = true
		}
	}
	return longest
}

type interval struct {
	start, end time.Time
}

// mergeIntervals collapses the (entry, exit) intervals into disjoint busy
// intervals: sorted by start, the current interval's end is extended while
// the next interval starts at or before that end.
func mergeIntervals(set *trades.TradeSet) []interval {
	if set.Empty() {
		return nil
	}

	intervals := make([]interval, 0, set.Len())
	for _, r := range set.Trades {
		intervals = append(intervals, interval{start: r.EntryTime, end: r.ExitTime})
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start.Before(intervals[j].start)
	})

	merged := intervals[:1]
	for _, next := range intervals[1:] {
		last := &merged[len(merged)-1]
		if !next.start.After(last.end) {
			if next.end.After(last.end) {
				last.end = next.end
			}
		} else {
			merged = append(merged, next)
		}
	}
	return merged
}

// flatPeriods reports the maximum and mean gap between consecutive merged
// busy intervals: stretches with no open trade across the whole set. Both
// are zero when fewer than two merged intervals exist.
func flatPeriods(set *trades.TradeSet) (max, avg time.Duration) {
	merged := mergeIntervals(set)
	if len(merged) < 2 {
		return 0, 0
	}

	var total time.Duration
	for i := 1; i < len(merged); i++ {
		gap := merged[i].start.Sub(merged[i-1].end)
		total += gap
		if gap > max {
			max = gap
		}
	}
	avg = total / time.Duration(len(merged)-1)
	return max, avg
}

// pctTimeInMarket is the share of calendar days containing at least one
// trade entry, over the days spanned from first entry to last exit
// (inclusive, minimum one day).
func pctTimeInMarket(set *trades.TradeSet) float64 {
	if set.Empty() {
		return 0
	}

	entryDays := make(map[string]struct{})
	firstEntry := set.Trades[0].EntryTime
	lastExit := set.Trades[0].ExitTime
	for _, r := range set.Trades {
		entryDays[r.EntryTime.Format("2006-01-02")] = struct{}{}
		if r.EntryTime.Before(firstEntry) {
			firstEntry = r.EntryTime
		}
		if r.ExitTime.After(lastExit) {
			lastExit = r.ExitTime
		}
	}

	totalDays := int(lastExit.Sub(firstEntry).Hours()/24) + 1
	if totalDays < 1 {
		totalDays = 1
	}
	return float64(len(entryDays)) / float64(totalDays) * 100
}

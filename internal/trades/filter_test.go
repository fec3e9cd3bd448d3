package trades

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSet(hasPosition bool) *TradeSet {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &TradeSet{
		HasPosition: hasPosition,
		Trades: []TradeRecord{
			{
				EntryTime: base, ExitTime: base.Add(time.Hour),
				Profit: Num(100), MAE: Num(-10), MFE: Num(120), ETD: Num(-20),
				Commission: Num(-4.24), ClearingFee: Num(-0.2), ExchangeFee: Num(-1.38),
				IPFee: Num(-0.02), NFAFee: Num(-0.02), CumNetProfit: Num(1000),
				Position: PositionLong,
			},
			{
				EntryTime: base.Add(2 * time.Hour), ExitTime: base.Add(3 * time.Hour),
				Profit: Num(-50), CumNetProfit: Num(950),
				Position: PositionShort,
			},
		},
	}
}

func TestFilterByDirection(t *testing.T) {
	t.Run("all mode is a true no-op", func(t *testing.T) {
		set := sampleSet(true)
		assert.Same(t, set, FilterByDirection(set, DirectionAll))
	})

	t.Run("no position column is a true no-op", func(t *testing.T) {
		set := sampleSet(false)
		assert.Same(t, set, FilterByDirection(set, DirectionLongOnly))
	})

	t.Run("nil set", func(t *testing.T) {
		assert.Nil(t, FilterByDirection(nil, DirectionLongOnly))
	})

	t.Run("long only", func(t *testing.T) {
		set := sampleSet(true)
		filtered := FilterByDirection(set, DirectionLongOnly)

		require.NotSame(t, set, filtered)
		require.Equal(t, 1, filtered.Len())
		assert.Equal(t, PositionLong, filtered.Trades[0].Position)
		assert.True(t, filtered.HasPosition)
		// Source set untouched.
		assert.Equal(t, 2, set.Len())
	})

	t.Run("short only", func(t *testing.T) {
		filtered := FilterByDirection(sampleSet(true), DirectionShortOnly)
		require.Equal(t, 1, filtered.Len())
		assert.Equal(t, PositionShort, filtered.Trades[0].Position)
	})

	t.Run("no matches yields empty set", func(t *testing.T) {
		set := sampleSet(true)
		set.Trades = set.Trades[:1] // Long only
		filtered := FilterByDirection(set, DirectionShortOnly)
		assert.True(t, filtered.Empty())
	})
}

func TestApplyContractMultiplier(t *testing.T) {
	t.Run("multiplier one is a true no-op", func(t *testing.T) {
		set := sampleSet(true)
		assert.Same(t, set, ApplyContractMultiplier(set, 1))
	})

	t.Run("empty set is a true no-op", func(t *testing.T) {
		set := &TradeSet{}
		assert.Same(t, set, ApplyContractMultiplier(set, 3))
	})

	t.Run("scales per-contract columns", func(t *testing.T) {
		set := sampleSet(true)
		scaled := ApplyContractMultiplier(set, 3)

		require.NotSame(t, set, scaled)
		first := scaled.Trades[0]
		assert.Equal(t, Num(300), first.Profit)
		assert.Equal(t, Num(-30), first.MAE)
		assert.Equal(t, Num(360), first.MFE)
		assert.Equal(t, Num(-60), first.ETD)
		assert.InDelta(t, -12.72, first.Commission.Value, 1e-9)
		assert.InDelta(t, -0.6, first.ClearingFee.Value, 1e-9)
		assert.InDelta(t, -4.14, first.ExchangeFee.Value, 1e-9)
		assert.InDelta(t, -0.06, first.IPFee.Value, 1e-9)
		assert.InDelta(t, -0.06, first.NFAFee.Value, 1e-9)

		// Running account total is never scaled.
		assert.Equal(t, Num(1000), first.CumNetProfit)

		// Source set untouched.
		assert.Equal(t, Num(100), set.Trades[0].Profit)
	})

	t.Run("invalid amounts stay invalid", func(t *testing.T) {
		set := &TradeSet{Trades: []TradeRecord{{Profit: Amount{}}}}
		scaled := ApplyContractMultiplier(set, 2)
		assert.False(t, scaled.Trades[0].Profit.Valid)
	})
}

package trades

// FilterByDirection returns the trades matching the requested direction.
// It is a true no-op (the identical set is returned) when mode is
// DirectionAll or the source never carried a position column.
func FilterByDirection(set *TradeSet, mode DirectionMode) *TradeSet {
	if set == nil || mode == DirectionAll || !set.HasPosition {
		return set
	}

	var want MarketPosition
	switch mode {
	case DirectionLongOnly:
		want = PositionLong
	case DirectionShortOnly:
		want = PositionShort
	default:
		return set
	}

	filtered := &TradeSet{HasPosition: set.HasPosition}
	for _, r := range set.Trades {
		if r.Position == want {
			filtered.Trades = append(filtered.Trades, r)
		}
	}
	return filtered
}

// ApplyContractMultiplier scales the per-contract monetary columns by the
// number of contracts traded. Multiplier 1 or an empty set returns the
// identical set: values must be bit-for-bit the input, not merely close.
// Cum. net profit is a running account total and is not scaled.
func ApplyContractMultiplier(set *TradeSet, multiplier int) *TradeSet {
	if set == nil || multiplier == 1 || set.Empty() {
		return set
	}

	scaled := &TradeSet{
		Trades:      make([]TradeRecord, len(set.Trades)),
		HasPosition: set.HasPosition,
	}
	m := float64(multiplier)
	for i, r := range set.Trades {
		r.Profit = scaleAmount(r.Profit, m)
		r.MAE = scaleAmount(r.MAE, m)
		r.MFE = scaleAmount(r.MFE, m)
		r.ETD = scaleAmount(r.ETD, m)
		r.Commission = scaleAmount(r.Commission, m)
		r.ClearingFee = scaleAmount(r.ClearingFee, m)
		r.ExchangeFee = scaleAmount(r.ExchangeFee, m)
		r.IPFee = scaleAmount(r.IPFee, m)
		r.NFAFee = scaleAmount(r.NFAFee, m)
		scaled.Trades[i] = r
	}
	return scaled
}

func scaleAmount(a Amount, m float64) Amount {
	if !a.Valid {
		return a
	}
	return Amount{Value: a.Value * m, Valid: true}
}

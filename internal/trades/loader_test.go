package trades

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullHeader = "Entry time,Exit time,Profit,MAE,MFE,ETD,Commission,Clearing Fee,Exchange Fee,IP Fee,NFA Fee,Cum. net profit,Market pos.,Bars"

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate("date", s)
	require.NoError(t, err)
	return d
}

func TestParseDate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := ParseDate("start_date", "05/03/2024")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("wrong layout", func(t *testing.T) {
		_, err := ParseDate("start_date", "2024-03-05")
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "start_date", parseErr.Field)
		assert.Equal(t, "2024-03-05", parseErr.Value)
	})
}

func TestLoadAndFilter_SourceErrors(t *testing.T) {
	start := mustDate(t, "01/01/2024")
	end := mustDate(t, "31/12/2024")

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAndFilter(filepath.Join(t.TempDir(), "nope.csv"), start, end)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeCSV(t, "empty.csv", "")
		_, err := LoadAndFilter(path, start, end)
		assert.ErrorIs(t, err, ErrEmptyData)
	})

	t.Run("header only", func(t *testing.T) {
		path := writeCSV(t, "header.csv", fullHeader+"\n")
		_, err := LoadAndFilter(path, start, end)
		assert.ErrorIs(t, err, ErrEmptyData)
	})

	t.Run("missing required column", func(t *testing.T) {
		path := writeCSV(t, "schema.csv",
			"Entry time,Profit\n01/03/2024 10:00:00,$5.00\n")
		_, err := LoadAndFilter(path, start, end)

		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"Exit time"}, schemaErr.Missing)
		assert.Equal(t, []string{"Entry time", "Profit"}, schemaErr.Available)
	})

	t.Run("unparseable entry time", func(t *testing.T) {
		path := writeCSV(t, "badtime.csv",
			"Entry time,Exit time,Profit\nnot-a-time,01/03/2024 11:00:00,$5.00\n")
		_, err := LoadAndFilter(path, start, end)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "Entry time", parseErr.Field)
		assert.Equal(t, "not-a-time", parseErr.Value)
	})

	t.Run("unparseable exit time", func(t *testing.T) {
		path := writeCSV(t, "badexit.csv",
			"Entry time,Exit time,Profit\n01/03/2024 10:00:00,later,$5.00\n")
		_, err := LoadAndFilter(path, start, end)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "Exit time", parseErr.Field)
	})
}

func TestLoadAndFilter_DateRange(t *testing.T) {
	// end is inclusive of its whole calendar day: [start, end+24h) on
	// entry time.
	path := writeCSV(t, "range.csv",
		"Entry time,Exit time,Profit\n"+
			"29/02/2024 23:59:59,01/03/2024 00:10:00,$1.00\n"+
			"01/03/2024 00:00:00,01/03/2024 01:00:00,$2.00\n"+
			"02/03/2024 23:59:59,03/03/2024 00:30:00,$3.00\n"+
			"03/03/2024 00:00:00,03/03/2024 01:00:00,$4.00\n")

	set, err := LoadAndFilter(path, mustDate(t, "01/03/2024"), mustDate(t, "02/03/2024"))
	require.NoError(t, err)

	require.Equal(t, 2, set.Len())
	assert.Equal(t, 2.0, set.Trades[0].Profit.Value)
	assert.Equal(t, 3.0, set.Trades[1].Profit.Value)
}

func TestLoadAndFilter_CurrencyNormalization(t *testing.T) {
	path := writeCSV(t, "money.csv",
		"Entry time,Exit time,Profit,Commission,Cum. net profit\n"+
			`01/03/2024 10:00:00,01/03/2024 11:00:00,"$1,234.50",$-4.24,"$12,000.00"`+"\n"+
			"01/03/2024 12:00:00,01/03/2024 13:00:00,garbage,,$5.00\n")

	set, err := LoadAndFilter(path, mustDate(t, "01/03/2024"), mustDate(t, "01/03/2024"))
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	first := set.Trades[0]
	assert.Equal(t, Num(1234.5), first.Profit)
	assert.Equal(t, Num(-4.24), first.Commission)
	assert.Equal(t, Num(12000.0), first.CumNetProfit)

	// Unparseable and empty cells become invalid amounts; the row is kept.
	second := set.Trades[1]
	assert.False(t, second.Profit.Valid)
	assert.False(t, second.Commission.Valid)
	assert.Equal(t, Num(5.0), second.CumNetProfit)
}

func TestLoadAndFilter_SortsByEntryTime(t *testing.T) {
	path := writeCSV(t, "unsorted.csv",
		"Entry time,Exit time,Profit\n"+
			"02/03/2024 10:00:00,02/03/2024 11:00:00,$2.00\n"+
			"01/03/2024 10:00:00,01/03/2024 11:00:00,$1.00\n")

	set, err := LoadAndFilter(path, mustDate(t, "01/03/2024"), mustDate(t, "02/03/2024"))
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.True(t, set.Trades[0].EntryTime.Before(set.Trades[1].EntryTime))
	assert.Equal(t, 1.0, set.Trades[0].Profit.Value)
}

func TestLoadAndFilter_PositionAndBars(t *testing.T) {
	t.Run("with position column", func(t *testing.T) {
		path := writeCSV(t, "pos.csv",
			fullHeader+"\n"+
				`01/03/2024 10:00:00,01/03/2024 11:00:00,$5.00,$-1.00,$6.00,$-1.00,$-4.24,$0.20,$1.38,$0.02,$0.02,"$1,000.00",Long,12`+"\n"+
				`01/03/2024 12:00:00,01/03/2024 13:00:00,$-3.00,$-4.00,$1.00,$-4.00,$-4.24,$0.20,$1.38,$0.02,$0.02,"$997.00",Short,`+"\n")

		set, err := LoadAndFilter(path, mustDate(t, "01/03/2024"), mustDate(t, "01/03/2024"))
		require.NoError(t, err)
		require.Equal(t, 2, set.Len())

		assert.True(t, set.HasPosition)
		assert.Equal(t, PositionLong, set.Trades[0].Position)
		assert.Equal(t, PositionShort, set.Trades[1].Position)
		assert.Equal(t, Num(12), set.Trades[0].Bars)
		assert.False(t, set.Trades[1].Bars.Valid)
	})

	t.Run("without position column", func(t *testing.T) {
		path := writeCSV(t, "nopos.csv",
			"Entry time,Exit time,Profit\n01/03/2024 10:00:00,01/03/2024 11:00:00,$5.00\n")

		set, err := LoadAndFilter(path, mustDate(t, "01/03/2024"), mustDate(t, "01/03/2024"))
		require.NoError(t, err)
		assert.False(t, set.HasPosition)
		assert.Equal(t, PositionUnset, set.Trades[0].Position)
	})
}

func TestLoadSummary(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, _, err := LoadSummary(filepath.Join(t.TempDir(), "nope.csv"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("header only", func(t *testing.T) {
		path := writeCSV(t, "sum.csv", "Metric,Value\n")
		_, _, err := LoadSummary(path)
		assert.ErrorIs(t, err, ErrEmptyData)
	})

	t.Run("lenient rows", func(t *testing.T) {
		path := writeCSV(t, "sum.csv", "Metric,Value\nNet profit,$100.00\nTrades,3\n")
		header, rows, err := LoadSummary(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Metric", "Value"}, header)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"Net profit", "$100.00"}, rows[0])
	})
}

func TestSchemaErrorMessage(t *testing.T) {
	err := &SchemaError{Path: "x.csv", Missing: []string{"Exit time"}, Available: []string{"Entry time"}}
	assert.Contains(t, err.Error(), "Exit time")
	assert.Contains(t, err.Error(), "Entry time")
}

func TestParseErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &ParseError{Field: "f", Value: "v", Layout: "l", Err: inner}
	assert.ErrorIs(t, err, inner)
}

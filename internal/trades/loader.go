package trades

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// requiredColumns must be present in every trade source. A missing column
// is a schema error, not a parse error.
var requiredColumns = []string{"Entry time", "Exit time"}

// monetaryColumns are normalized from currency-formatted text to numbers.
var monetaryColumns = []string{
	"Profit", "MAE", "MFE", "ETD", "Commission",
	"Clearing Fee", "Exchange Fee", "IP Fee", "NFA Fee", "Cum. net profit",
}

// ParseDate parses a dd/mm/yyyy date argument. field names the argument in
// the resulting ParseError.
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ParseError{Field: field, Value: s, Layout: DateLayout, Err: err}
	}
	return t, nil
}

// LoadAndFilter loads one instrument's trade rows from a CSV source,
// validates the schema, parses timestamps, normalizes monetary columns and
// filters rows to [start, end + 24h) on entry time. end is inclusive of its
// whole calendar day. The returned set is sorted ascending by entry time.
func LoadAndFilter(path string, start, end time.Time) (*TradeSet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trade source %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read trade source %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, path)
	}

	header := records[0]
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		available := make([]string, 0, len(header))
		for _, name := range header {
			available = append(available, strings.TrimSpace(name))
		}
		return nil, &SchemaError{Path: path, Missing: missing, Available: available}
	}

	if len(records) == 1 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, path)
	}

	cutoff := end.AddDate(0, 0, 1)
	hasPosition := false
	if _, ok := columns["Market pos."]; ok {
		hasPosition = true
	}

	cell := func(row []string, name string) (string, bool) {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[idx]), true
	}

	set := &TradeSet{HasPosition: hasPosition}
	for _, row := range records[1:] {
		entryText, _ := cell(row, "Entry time")
		entry, err := time.Parse(EntryTimeLayout, entryText)
		if err != nil {
			return nil, &ParseError{Field: "Entry time", Value: entryText, Layout: EntryTimeLayout, Err: err}
		}
		exitText, _ := cell(row, "Exit time")
		exit, err := time.Parse(EntryTimeLayout, exitText)
		if err != nil {
			return nil, &ParseError{Field: "Exit time", Value: exitText, Layout: EntryTimeLayout, Err: err}
		}

		if entry.Before(start) || !entry.Before(cutoff) {
			continue
		}

		rec := TradeRecord{EntryTime: entry, ExitTime: exit, Contracts: 1}

		money := func(name string) Amount {
			text, ok := cell(row, name)
			if !ok {
				return Amount{}
			}
			return parseCurrency(text)
		}
		rec.Profit = money("Profit")
		rec.MAE = money("MAE")
		rec.MFE = money("MFE")
		rec.ETD = money("ETD")
		rec.Commission = money("Commission")
		rec.ClearingFee = money("Clearing Fee")
		rec.ExchangeFee = money("Exchange Fee")
		rec.IPFee = money("IP Fee")
		rec.NFAFee = money("NFA Fee")
		rec.CumNetProfit = money("Cum. net profit")

		if hasPosition {
			if pos, _ := cell(row, "Market pos."); pos != "" {
				switch pos {
				case string(PositionLong):
					rec.Position = PositionLong
				case string(PositionShort):
					rec.Position = PositionShort
				}
			}
		}

		if text, ok := cell(row, "Bars"); ok && text != "" {
			if bars, err := strconv.ParseFloat(text, 64); err == nil {
				rec.Bars = Num(bars)
			}
		}

		set.Trades = append(set.Trades, rec)
	}

	sort.SliceStable(set.Trades, func(i, j int) bool {
		return set.Trades[i].EntryTime.Before(set.Trades[j].EntryTime)
	})

	slog.Debug("loaded trade source",
		slog.String("path", path),
		slog.Int("rows", len(records)-1),
		slog.Int("in_range", len(set.Trades)),
	)

	return set, nil
}

// parseCurrency converts currency-formatted text such as "$1,234.00" to a
// numeric amount. Unparseable values become invalid amounts, never a
// dropped row or a fatal error.
func parseCurrency(text string) Amount {
	if text == "" {
		return Amount{}
	}
	cleaned := strings.ReplaceAll(text, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return Amount{}
	}
	return Amount{Value: v, Valid: true}
}

// LoadSummary reads an instrument's summary CSV leniently: the header and
// raw rows are returned for display, with no schema requirements beyond
// having at least one data row.
func LoadSummary(path string) ([]string, [][]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open summary source %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read summary source %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmptyData, path)
	}
	return records[0], records[1:], nil
}

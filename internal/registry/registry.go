// Package registry discovers the instrument CSV pairs that feed the trade
// pipeline. Discovery is an injected interface so the loader never depends
// on ad hoc directory scans and a request sees one consistent snapshot.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tradepulse/internal/trades"
)

const (
	tradesSuffix  = "-trades.csv"
	summarySuffix = "-summary.csv"
)

// Registry maps instrument short codes to their source files.
type Registry interface {
	// Instruments returns the current instrument snapshot. A prefix is
	// usable only when both its trades and summary files exist.
	Instruments(ctx context.Context) (map[string]trades.InstrumentFiles, error)
}

// DirRegistry discovers instruments by filename convention in a single
// directory: <prefix>-trades.csv paired with <prefix>-summary.csv
// (case-insensitive suffix match).
type DirRegistry struct {
	dir string

	// accountPrefix is the account token stripped from matched prefixes
	// when deriving the short display code.
	accountPrefix string
}

// NewDirRegistry creates a directory-backed registry.
func NewDirRegistry(dir, accountPrefix string) *DirRegistry {
	return &DirRegistry{dir: dir, accountPrefix: accountPrefix}
}

// Instruments scans the directory and pairs trades/summary files. The
// short code is the matched prefix with the account token and all hyphens
// removed, upper-cased: "ROA305-GC-55-trades.csv" becomes "GC55".
func (r *DirRegistry) Instruments(ctx context.Context) (map[string]trades.InstrumentFiles, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]trades.InstrumentFiles{}, nil
		}
		return nil, fmt.Errorf("read instrument directory %s: %w", r.dir, err)
	}

	tradeFiles := make(map[string]string)   // lowercase prefix -> filename
	summaryFiles := make(map[string]string) // lowercase prefix -> filename

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		switch {
		case strings.HasSuffix(lower, tradesSuffix):
			tradeFiles[strings.TrimSuffix(lower, tradesSuffix)] = name
		case strings.HasSuffix(lower, summarySuffix):
			summaryFiles[strings.TrimSuffix(lower, summarySuffix)] = name
		}
	}

	instruments := make(map[string]trades.InstrumentFiles)
	for prefix, tradeName := range tradeFiles {
		summaryName, ok := summaryFiles[prefix]
		if !ok {
			continue
		}
		instruments[r.shortCode(prefix)] = trades.InstrumentFiles{
			Trades:  filepath.Join(r.dir, tradeName),
			Summary: filepath.Join(r.dir, summaryName),
		}
	}
	return instruments, nil
}

func (r *DirRegistry) shortCode(prefix string) string {
	code := prefix
	if r.accountPrefix != "" {
		code = strings.ReplaceAll(code, strings.ToLower(r.accountPrefix), "")
	}
	code = strings.ReplaceAll(code, "-", "")
	return strings.ToUpper(code)
}

// Static is a fixed instrument map, useful for tests and single-request
// snapshots.
type Static map[string]trades.InstrumentFiles

// Instruments returns the fixed map.
func (s Static) Instruments(ctx context.Context) (map[string]trades.InstrumentFiles, error) {
	return s, nil
}

package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepulse/internal/trades"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestDirRegistry_Instruments(t *testing.T) {
	t.Run("pairs trades with summary", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "ROA305-GC-55-trades.csv")
		touch(t, dir, "ROA305-GC-55-summary.csv")
		touch(t, dir, "ROA305-ES-trades.csv") // no summary: skipped
		touch(t, dir, "notes.txt")

		reg := NewDirRegistry(dir, "ROA305-")
		instruments, err := reg.Instruments(context.Background())
		require.NoError(t, err)

		require.Len(t, instruments, 1)
		files, ok := instruments["GC55"]
		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "ROA305-GC-55-trades.csv"), files.Trades)
		assert.Equal(t, filepath.Join(dir, "ROA305-GC-55-summary.csv"), files.Summary)
	})

	t.Run("suffix match is case-insensitive", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "roa305-nq-Trades.CSV")
		touch(t, dir, "roa305-nq-SUMMARY.csv")

		reg := NewDirRegistry(dir, "ROA305-")
		instruments, err := reg.Instruments(context.Background())
		require.NoError(t, err)

		require.Len(t, instruments, 1)
		_, ok := instruments["NQ"]
		assert.True(t, ok)
	})

	t.Run("short code strips account prefix and hyphens", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "ROA305-CL-2024-trades.csv")
		touch(t, dir, "ROA305-CL-2024-summary.csv")

		reg := NewDirRegistry(dir, "ROA305-")
		instruments, err := reg.Instruments(context.Background())
		require.NoError(t, err)

		_, ok := instruments["CL2024"]
		assert.True(t, ok)
	})

	t.Run("empty account prefix keeps full code", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "gc-trades.csv")
		touch(t, dir, "gc-summary.csv")

		reg := NewDirRegistry(dir, "")
		instruments, err := reg.Instruments(context.Background())
		require.NoError(t, err)

		_, ok := instruments["GC"]
		assert.True(t, ok)
	})

	t.Run("missing directory yields empty snapshot", func(t *testing.T) {
		reg := NewDirRegistry(filepath.Join(t.TempDir(), "nope"), "ROA305-")
		instruments, err := reg.Instruments(context.Background())
		require.NoError(t, err)
		assert.Empty(t, instruments)
	})

	t.Run("subdirectories are ignored", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "x-trades.csv"), 0755))
		touch(t, dir, "gc-trades.csv")
		touch(t, dir, "gc-summary.csv")

		reg := NewDirRegistry(dir, "")
		instruments, err := reg.Instruments(context.Background())
		require.NoError(t, err)
		assert.Len(t, instruments, 1)
	})
}

func TestStatic(t *testing.T) {
	fixed := Static{"GC": trades.InstrumentFiles{Trades: "a", Summary: "b"}}
	instruments, err := fixed.Instruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]trades.InstrumentFiles(fixed), instruments)
}

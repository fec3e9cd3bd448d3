package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, "reports", cfg.Paths.ReportsDir)
	assert.Equal(t, "ROA305-", cfg.Analytics.AccountPrefix)
}

func TestLoadFrom_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
logging:
  level: debug
paths:
  data_dir: /var/trades
analytics:
  account_prefix: ACCT-
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/trades", cfg.Paths.DataDir)
	assert.Equal(t, "ACCT-", cfg.Analytics.AccountPrefix)
	// Unset values still get defaults.
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))

	t.Setenv("TRADEPULSE_SERVER_PORT", "9191")
	t.Setenv("TRADEPULSE_PATHS_DATA_DIR", "/tmp/data")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/tmp/data", cfg.Paths.DataDir)
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestLoadFrom_Validation(t *testing.T) {
	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("TRADEPULSE_SERVER_PORT", "70000")
		_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "port")
	})

	t.Run("rate limit enabled needs positive rps", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "security:\n  rate_limit:\n    enabled: true\n    rps: -5\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		_, err := LoadFrom(path)
		assert.ErrorContains(t, err, "rps")
	})
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{}
	cfg.Paths.ReportsDir = filepath.Join(base, "reports")
	cfg.Logging.FilePath = filepath.Join(base, "logs", "app.log")

	require.NoError(t, cfg.EnsureDirs())
	assert.DirExists(t, filepath.Join(base, "reports"))
	assert.DirExists(t, filepath.Join(base, "logs"))
}

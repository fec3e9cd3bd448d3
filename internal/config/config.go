// Package config loads application configuration from environment
// variables and an optional YAML file. Environment variables take
// precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces the environment variables (TRADEPULSE_SERVER_PORT...).
const envPrefix = "TRADEPULSE"

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains CORS and rate-limit settings.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains filesystem paths.
type PathsConfig struct {
	// DataDir holds the instrument CSV pairs (<prefix>-trades.csv,
	// <prefix>-summary.csv).
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	// ReportsDir receives exported workbooks and CSVs.
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
}

// AnalyticsConfig contains engine defaults.
type AnalyticsConfig struct {
	// AccountPrefix is the account token stripped from file prefixes when
	// deriving instrument short codes.
	AccountPrefix string `yaml:"account_prefix" envconfig:"ACCOUNT_PREFIX"`
}

// Load loads configuration from environment variables and, when present,
// a config.yaml file next to the working directory.
func Load() (*Config, error) {
	return LoadFrom("config.yaml")
}

// LoadFrom loads configuration with an explicit file path. A missing file
// is not an error; env values always win over file values.
func LoadFrom(path string) (*Config, error) {
	var fileCfg Config
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := fileCfg
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyDefaults fills values set by neither the YAML file nor the
// environment. Defaults live here, not in struct tags, so file values are
// never overwritten by a tag default.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join("logs", "tradepulse.log")
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = "data"
	}
	if c.Paths.ReportsDir == "" {
		c.Paths.ReportsDir = "reports"
	}
	if c.Analytics.AccountPrefix == "" {
		c.Analytics.AccountPrefix = "ROA305-"
	}
	if c.Security.RateLimit.Enabled {
		if c.Security.RateLimit.RPS == 0 {
			c.Security.RateLimit.RPS = 100
		}
		if c.Security.RateLimit.Burst == 0 {
			c.Security.RateLimit.Burst = 50
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit enabled with non-positive rps: %f", c.Security.RateLimit.RPS)
	}
	return nil
}

// EnsureDirs creates the directories the application writes to.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.ReportsDir, filepath.Dir(c.Logging.FilePath)} {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

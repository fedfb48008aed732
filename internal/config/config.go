// Package config resolves runtime configuration from three layers, lowest
// precedence first: built-in defaults, an optional YAML file in the data
// directory, then RECOLLECT_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// Config holds all configuration values.
type Config struct {
	// Storage
	DataDir      string
	DatabaseFile string

	// Capture buffering
	BufferSize    int
	FlushInterval time.Duration

	// Retrieval
	MaxSearchResults int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the YAML shape of <data-dir>/config.yaml. All fields are
// optional; zero values leave the default in place.
type fileConfig struct {
	DatabaseFile     string `yaml:"database_file"`
	BufferSize       int    `yaml:"buffer_size"`
	FlushInterval    string `yaml:"flush_interval"`
	MaxSearchResults int    `yaml:"max_search_results"`
	LogFile          string `yaml:"log_file"`
	LogLevel         string `yaml:"log_level"`
}

// Load resolves the full configuration. Only a malformed YAML file is an
// error; a missing file or unset variables fall through to defaults.
func Load() (Config, error) {
	dataDir := getEnv("RECOLLECT_DATA_DIR", defaultDataDir())

	cfg := Config{
		DataDir:          dataDir,
		DatabaseFile:     filepath.Join(dataDir, "recollect.db"),
		BufferSize:       10,
		FlushInterval:    30 * time.Second,
		MaxSearchResults: 50,
		LogFile:          filepath.Join(dataDir, "recollect.log"),
		LogLevel:         slog.LevelInfo,
	}

	if err := cfg.applyFile(filepath.Join(dataDir, configFileName)); err != nil {
		return Config{}, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "recollect")
	}
	return filepath.Join(home, ".recollect")
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if fc.DatabaseFile != "" {
		c.DatabaseFile = absIn(c.DataDir, fc.DatabaseFile)
	}
	if fc.BufferSize > 0 {
		c.BufferSize = fc.BufferSize
	}
	if fc.FlushInterval != "" {
		d, err := time.ParseDuration(fc.FlushInterval)
		if err != nil {
			return fmt.Errorf("config: parse %s: flush_interval: %w", path, err)
		}
		c.FlushInterval = d
	}
	if fc.MaxSearchResults > 0 {
		c.MaxSearchResults = fc.MaxSearchResults
	}
	if fc.LogFile != "" {
		c.LogFile = absIn(c.DataDir, fc.LogFile)
	}
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RECOLLECT_DB_FILE"); v != "" {
		c.DatabaseFile = v
	}
	if v := os.Getenv("RECOLLECT_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.BufferSize = n
		}
	}
	if v := os.Getenv("RECOLLECT_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.FlushInterval = d
		}
	}
	if v := os.Getenv("RECOLLECT_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxSearchResults = n
		}
	}
	if v := os.Getenv("RECOLLECT_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("RECOLLECT_LOG_LEVEL"); v != "" {
		c.LogLevel = parseLogLevel(v)
	}
}

// absIn anchors a relative path from the config file to the data directory.
func absIn(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

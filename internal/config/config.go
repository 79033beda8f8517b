// Package config provides configuration loading from an optional TOML file
// and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/usestring/restiming-mcp/pkg/restiming"
)

// Tool output limit defaults
const (
	DefaultQueryLimitValue = 50
	MaxQueryResultsValue   = 10000
)

// ConfigFileEnv names the variable holding the optional TOML config path.
const ConfigFileEnv = "RESTIMING_CONFIG"

// Config holds all configuration for the MCP server.
type Config struct {
	CollectorBaseURL      string        // COLLECTOR_BASE_URL, default "http://localhost:7780"
	HTTPClientTimeout     time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 10000ms (10s)
	LoadTimeout           time.Duration // LOAD_TIMEOUT_MS, default 15000ms (15s)
	LoadWorkers           int           // LOAD_WORKERS, default 8
	SnapshotCacheMaxItems int           // SNAPSHOT_CACHE_MAX_ITEMS, default 128

	// Tool output limits
	DefaultQueryLimit int // DEFAULT_QUERY_LIMIT
	MaxQueryResults   int // MAX_QUERY_RESULTS, default 10000

	// Engine options
	URLLimit      int      // URL_LIMIT, default 1000
	ClearOnBeacon bool     // CLEAR_ON_BEACON, default false
	XSSBreakWords []string // XSS_BREAK_WORDS, whitespace separated; default href/src/action
	BeaconURL     string   // BEACON_URL, excluded from collection
	ConfigURL     string   // CONFIG_URL, excluded from collection

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json", default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CollectorBaseURL:      "http://localhost:7780",
		HTTPClientTimeout:     10 * time.Second,
		LoadTimeout:           15 * time.Second,
		LoadWorkers:           8,
		SnapshotCacheMaxItems: 128,

		DefaultQueryLimit: DefaultQueryLimitValue,
		MaxQueryResults:   MaxQueryResultsValue,

		URLLimit:      restiming.DefaultURLLimit,
		XSSBreakWords: append([]string(nil), restiming.DefaultXSSBreakWords...),

		LogLevel:      "info",
		LogFormat:     "text",
		LogMaxSizeMB:  10,
		LogMaxBackups: 5,
		LogMaxAgeDays: 28,
		LogCompress:   true,
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// RESTIMING_CONFIG (if set), then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// EngineOptions maps the engine settings onto restiming.Options.
func (c *Config) EngineOptions() restiming.Options {
	opts := restiming.DefaultOptions()
	opts.URLLimit = c.URLLimit
	opts.ClearOnBeacon = c.ClearOnBeacon
	if c.XSSBreakWords != nil {
		opts.XSSBreakWords = c.XSSBreakWords
	}
	for _, u := range []string{c.BeaconURL, c.ConfigURL} {
		if u != "" {
			opts.SelfURLs = append(opts.SelfURLs, u)
		}
	}
	return opts
}

type fileConfig struct {
	Collector struct {
		BaseURL   string `toml:"base_url"`
		TimeoutMS int    `toml:"timeout_ms"`
	} `toml:"collector"`
	Loader struct {
		TimeoutMS     int `toml:"timeout_ms"`
		Workers       int `toml:"workers"`
		CacheMaxItems int `toml:"cache_max_items"`
	} `toml:"loader"`
	Engine struct {
		URLLimit      int      `toml:"url_limit"`
		ClearOnBeacon bool     `toml:"clear_on_beacon"`
		XSSBreakWords []string `toml:"xss_break_words"`
		BeaconURL     string   `toml:"beacon_url"`
		ConfigURL     string   `toml:"config_url"`
	} `toml:"engine"`
	Log struct {
		Level      string `toml:"level"`
		Format     string `toml:"format"`
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Compress   bool   `toml:"compress"`
	} `toml:"log"`
}

func (c *Config) applyFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config file %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("collector", "base_url") {
		c.CollectorBaseURL = strings.TrimSpace(raw.Collector.BaseURL)
	}
	if meta.IsDefined("collector", "timeout_ms") {
		c.HTTPClientTimeout = time.Duration(raw.Collector.TimeoutMS) * time.Millisecond
	}

	if meta.IsDefined("loader", "timeout_ms") {
		c.LoadTimeout = time.Duration(raw.Loader.TimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("loader", "workers") {
		c.LoadWorkers = raw.Loader.Workers
	}
	if meta.IsDefined("loader", "cache_max_items") {
		c.SnapshotCacheMaxItems = raw.Loader.CacheMaxItems
	}

	if meta.IsDefined("engine", "url_limit") {
		c.URLLimit = raw.Engine.URLLimit
	}
	if meta.IsDefined("engine", "clear_on_beacon") {
		c.ClearOnBeacon = raw.Engine.ClearOnBeacon
	}
	if meta.IsDefined("engine", "xss_break_words") {
		c.XSSBreakWords = raw.Engine.XSSBreakWords
		if c.XSSBreakWords == nil {
			c.XSSBreakWords = []string{}
		}
	}
	if meta.IsDefined("engine", "beacon_url") {
		c.BeaconURL = strings.TrimSpace(raw.Engine.BeaconURL)
	}
	if meta.IsDefined("engine", "config_url") {
		c.ConfigURL = strings.TrimSpace(raw.Engine.ConfigURL)
	}

	if meta.IsDefined("log", "level") {
		c.LogLevel = raw.Log.Level
	}
	if meta.IsDefined("log", "format") {
		c.LogFormat = raw.Log.Format
	}
	if meta.IsDefined("log", "file") {
		c.LogFile = raw.Log.File
	}
	if meta.IsDefined("log", "max_size_mb") {
		c.LogMaxSizeMB = raw.Log.MaxSizeMB
	}
	if meta.IsDefined("log", "max_backups") {
		c.LogMaxBackups = raw.Log.MaxBackups
	}
	if meta.IsDefined("log", "max_age_days") {
		c.LogMaxAgeDays = raw.Log.MaxAgeDays
	}
	if meta.IsDefined("log", "compress") {
		c.LogCompress = raw.Log.Compress
	}
	return nil
}

func (c *Config) applyEnv() {
	c.CollectorBaseURL = getEnvString("COLLECTOR_BASE_URL", c.CollectorBaseURL)
	c.HTTPClientTimeout = getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", c.HTTPClientTimeout)
	c.LoadTimeout = getEnvDurationMs("LOAD_TIMEOUT_MS", c.LoadTimeout)
	c.LoadWorkers = getEnvInt("LOAD_WORKERS", c.LoadWorkers)
	c.SnapshotCacheMaxItems = getEnvInt("SNAPSHOT_CACHE_MAX_ITEMS", c.SnapshotCacheMaxItems)

	c.DefaultQueryLimit = getEnvInt("DEFAULT_QUERY_LIMIT", c.DefaultQueryLimit)
	c.MaxQueryResults = getEnvInt("MAX_QUERY_RESULTS", c.MaxQueryResults)

	c.URLLimit = getEnvInt("URL_LIMIT", c.URLLimit)
	c.ClearOnBeacon = getEnvBool("CLEAR_ON_BEACON", c.ClearOnBeacon)
	c.XSSBreakWords = getEnvFields("XSS_BREAK_WORDS", c.XSSBreakWords)
	c.BeaconURL = getEnvString("BEACON_URL", c.BeaconURL)
	c.ConfigURL = getEnvString("CONFIG_URL", c.ConfigURL)

	c.LogLevel = getEnvString("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvString("LOG_FORMAT", c.LogFormat)
	c.LogFile = getEnvString("LOG_FILE", c.LogFile)
	c.LogMaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", c.LogMaxSizeMB)
	c.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", c.LogMaxBackups)
	c.LogMaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", c.LogMaxAgeDays)
	c.LogCompress = getEnvBool("LOG_COMPRESS", c.LogCompress)
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

// getEnvFields splits a whitespace separated value, so patterns may hold
// commas; a literal space is written as \x20. "none" yields an empty list.
func getEnvFields(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if v == "none" {
		return []string{}
	}
	return strings.Fields(v)
}

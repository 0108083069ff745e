// Package config provides configuration loading from environment variables
// with an optional YAML overlay.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/internal/schema"
	"github.com/usestring/devtools-mcp/pkg/compaction"
	"github.com/usestring/devtools-mcp/pkg/jsoncompact"
)

// FileEnv names the environment variable holding the YAML overlay path.
const FileEnv = "DEVTOOLS_MCP_CONFIG"

// Config holds all configuration for the MCP server.
type Config struct {
	// CLI runner
	CLITimeout        time.Duration // CLI_TIMEOUT_MS, default 120000ms
	CLIMaxConcurrent  int           // CLI_MAX_CONCURRENT, default 4
	CLIMaxOutputBytes int           // CLI_MAX_OUTPUT_BYTES, default 8 MiB

	// Compaction
	CompactEstimator string // COMPACT_ESTIMATOR, "tokens" or "bytes"
	CompactDefault   string // COMPACT_DEFAULT, "auto" or "full"

	// Debug previews of payloads
	PreviewMaxArrayItems int // PREVIEW_MAX_ARRAY_ITEMS
	PreviewMaxStringLen  int // PREVIEW_MAX_STRING_LEN

	SchemaCacheSize int // SCHEMA_CACHE_SIZE, default 64

	// Tool policy. Entries are tool names or group names.
	EnabledTools  []string // DEVTOOLS_MCP_TOOLS, empty means all
	DisabledTools []string // DEVTOOLS_MCP_DISABLED_TOOLS

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true

	// File is the overlay that was applied, if any.
	File string
}

// Load reads configuration from the environment. When DEVTOOLS_MCP_CONFIG
// names a YAML file its settings fill in keys the environment leaves unset.
func Load() (*Config, error) {
	src := source{getenv: os.Getenv}
	if path := os.Getenv(FileEnv); path != "" {
		f, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = f
	}
	return load(src)
}

func load(src source) (*Config, error) {
	cfg := &Config{
		CLITimeout:        src.getDurationMs("CLI_TIMEOUT_MS", int(runner.DefaultTimeout/time.Millisecond)),
		CLIMaxConcurrent:  src.getInt("CLI_MAX_CONCURRENT", runner.DefaultMaxConcurrent),
		CLIMaxOutputBytes: src.getInt("CLI_MAX_OUTPUT_BYTES", runner.DefaultMaxOutputBytes),

		CompactEstimator: strings.ToLower(src.getString("COMPACT_ESTIMATOR", "tokens")),
		CompactDefault:   strings.ToLower(src.getString("COMPACT_DEFAULT", "auto")),

		PreviewMaxArrayItems: src.getInt("PREVIEW_MAX_ARRAY_ITEMS", jsoncompact.DefaultMaxArrayItems),
		PreviewMaxStringLen:  src.getInt("PREVIEW_MAX_STRING_LEN", jsoncompact.DefaultMaxStringLen),

		SchemaCacheSize: src.getInt("SCHEMA_CACHE_SIZE", schema.DefaultCacheSize),

		EnabledTools:  src.getList("DEVTOOLS_MCP_TOOLS"),
		DisabledTools: src.getList("DEVTOOLS_MCP_DISABLED_TOOLS"),

		LogLevel:      src.getString("LOG_LEVEL", "info"),
		LogFormat:     src.getString("LOG_FORMAT", "text"),
		LogFile:       src.getString("LOG_FILE", ""),
		LogMaxSizeMB:  src.getInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: src.getInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: src.getInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   src.getBool("LOG_COMPRESS", true),
	}
	if src.file != nil {
		cfg.File = src.file.path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	if _, err := compaction.NewEstimator(c.CompactEstimator); err != nil {
		return fmt.Errorf("COMPACT_ESTIMATOR: %w", err)
	}
	switch c.CompactDefault {
	case "auto", "full":
	default:
		return fmt.Errorf("COMPACT_DEFAULT: must be auto or full, got %q", c.CompactDefault)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT: must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Estimator returns the configured size estimator.
func (c *Config) Estimator() compaction.Estimator {
	est, err := compaction.NewEstimator(c.CompactEstimator)
	if err != nil {
		return compaction.TokenEstimator{}
	}
	return est
}

// ResolvePreference maps a tool's compact flag to a preference, applying the
// server-wide default when the flag is absent.
func (c *Config) ResolvePreference(compact *bool) compaction.Preference {
	if compact == nil && c.CompactDefault == "full" {
		return compaction.PreferFull
	}
	return compaction.PreferenceFromFlag(compact)
}

// ToolEnabled reports whether a tool passes the allow and deny lists. Either
// list may name the tool or its group. The deny list wins.
func (c *Config) ToolEnabled(name, group string) bool {
	if slices.Contains(c.DisabledTools, name) || slices.Contains(c.DisabledTools, group) {
		return false
	}
	if len(c.EnabledTools) == 0 {
		return true
	}
	return slices.Contains(c.EnabledTools, name) || slices.Contains(c.EnabledTools, group)
}

// source resolves a key from the environment first, then the overlay file.
type source struct {
	getenv func(string) string
	file   *fileConfig
}

func (s source) lookup(key string) string {
	if v := s.getenv(key); v != "" {
		return v
	}
	if s.file != nil {
		return s.file.setting(key)
	}
	return ""
}

func (s source) getBool(key string, defaultVal bool) bool {
	if v := s.lookup(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func (s source) getString(key, defaultVal string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return defaultVal
}

func (s source) getInt(key string, defaultVal int) int {
	if v := s.lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func (s source) getDurationMs(key string, defaultMs int) time.Duration {
	ms := s.getInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}

// getList reads a comma-separated value. The environment replaces the file's
// list rather than extending it.
func (s source) getList(key string) []string {
	if v := s.getenv(key); v != "" {
		return splitList(v)
	}
	if s.file != nil {
		return s.file.list(key)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

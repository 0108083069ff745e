package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/devtools-mcp/pkg/compaction"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devtools-mcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(source{getenv: envOf(nil)})
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.CLITimeout)
	assert.Equal(t, 4, cfg.CLIMaxConcurrent)
	assert.Equal(t, 8<<20, cfg.CLIMaxOutputBytes)
	assert.Equal(t, "tokens", cfg.CompactEstimator)
	assert.Equal(t, "auto", cfg.CompactDefault)
	assert.Equal(t, 3, cfg.PreviewMaxArrayItems)
	assert.Equal(t, 200, cfg.PreviewMaxStringLen)
	assert.Equal(t, 64, cfg.SchemaCacheSize)
	assert.Empty(t, cfg.EnabledTools)
	assert.Empty(t, cfg.DisabledTools)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.LogCompress)
	assert.Empty(t, cfg.File)
}

func TestLoad_EnvValues(t *testing.T) {
	cfg, err := load(source{getenv: envOf(map[string]string{
		"CLI_TIMEOUT_MS":              "1500",
		"CLI_MAX_CONCURRENT":          "2",
		"COMPACT_ESTIMATOR":           "BYTES",
		"COMPACT_DEFAULT":             "full",
		"DEVTOOLS_MCP_TOOLS":          "git, lint ,",
		"DEVTOOLS_MCP_DISABLED_TOOLS": "git_log",
		"LOG_COMPRESS":                "off",
		"SCHEMA_CACHE_SIZE":           "not-a-number",
	})})
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.CLITimeout)
	assert.Equal(t, 2, cfg.CLIMaxConcurrent)
	assert.Equal(t, "bytes", cfg.CompactEstimator)
	assert.IsType(t, compaction.ByteEstimator{}, cfg.Estimator())
	assert.Equal(t, []string{"git", "lint"}, cfg.EnabledTools)
	assert.Equal(t, []string{"git_log"}, cfg.DisabledTools)
	assert.False(t, cfg.LogCompress)
	assert.Equal(t, 64, cfg.SchemaCacheSize, "unparseable ints fall back to the default")
}

func TestLoad_InvalidValues(t *testing.T) {
	for key, val := range map[string]string{
		"COMPACT_ESTIMATOR": "words",
		"COMPACT_DEFAULT":   "compact",
		"LOG_FORMAT":        "xml",
	} {
		t.Run(key, func(t *testing.T) {
			cfg, err := load(source{getenv: envOf(map[string]string{key: val})})
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	path := writeFile(t, `
settings:
  CLI_TIMEOUT_MS: 30000
  COMPACT_DEFAULT: full
  LOG_COMPRESS: false
  LOG_LEVEL: debug
tools:
  enabled: [git, go_test]
  disabled: [git_diff]
`)
	t.Setenv(FileEnv, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 30*time.Second, cfg.CLITimeout)
	assert.Equal(t, "full", cfg.CompactDefault)
	assert.False(t, cfg.LogCompress)
	assert.Equal(t, "warn", cfg.LogLevel, "environment wins over the file")
	assert.Equal(t, []string{"git", "go_test"}, cfg.EnabledTools)
	assert.Equal(t, []string{"git_diff"}, cfg.DisabledTools)
}

func TestLoad_EnvListReplacesFileList(t *testing.T) {
	path := writeFile(t, "tools:\n  enabled: [git]\n")
	t.Setenv(FileEnv, path)
	t.Setenv("DEVTOOLS_MCP_TOOLS", "lint")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"lint"}, cfg.EnabledTools)
}

func TestLoad_FileErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv(FileEnv, filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("invalid yaml", func(t *testing.T) {
		t.Setenv(FileEnv, writeFile(t, "{{invalid yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestToolEnabled(t *testing.T) {
	tests := []struct {
		name     string
		enabled  []string
		disabled []string
		tool     string
		group    string
		want     bool
	}{
		{"empty lists allow all", nil, nil, "git_status", "git", true},
		{"allow by name", []string{"git_status"}, nil, "git_status", "git", true},
		{"allow by group", []string{"git"}, nil, "git_log", "git", true},
		{"not in allowlist", []string{"lint"}, nil, "git_log", "git", false},
		{"deny by name", nil, []string{"npm_audit"}, "npm_audit", "npm", false},
		{"deny by group", nil, []string{"go"}, "go_test", "go", false},
		{"deny wins over allow", []string{"git"}, []string{"git_diff"}, "git_diff", "git", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EnabledTools: tt.enabled, DisabledTools: tt.disabled}
			assert.Equal(t, tt.want, cfg.ToolEnabled(tt.tool, tt.group))
		})
	}
}

func TestResolvePreference(t *testing.T) {
	f, tr := false, true

	auto := &Config{CompactDefault: "auto"}
	assert.Equal(t, compaction.PreferAuto, auto.ResolvePreference(nil))
	assert.Equal(t, compaction.PreferAuto, auto.ResolvePreference(&tr))
	assert.Equal(t, compaction.PreferFull, auto.ResolvePreference(&f))

	full := &Config{CompactDefault: "full"}
	assert.Equal(t, compaction.PreferFull, full.ResolvePreference(nil))
	assert.Equal(t, compaction.PreferAuto, full.ResolvePreference(&tr), "an explicit true still opts in to auto")
	assert.Equal(t, compaction.PreferFull, full.ResolvePreference(&f))
}

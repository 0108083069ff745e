package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML overlay:
//
//	settings:
//	  CLI_TIMEOUT_MS: 60000
//	  COMPACT_DEFAULT: full
//	tools:
//	  enabled: [git, lint]
//	  disabled: [npm_audit]
type fileConfig struct {
	Settings map[string]any `yaml:"settings,omitempty"`
	Tools    struct {
		Enabled  []string `yaml:"enabled,omitempty"`
		Disabled []string `yaml:"disabled,omitempty"`
	} `yaml:"tools,omitempty"`

	path string
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.path = path
	return &f, nil
}

func (f *fileConfig) setting(key string) string {
	v, ok := f.Settings[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (f *fileConfig) list(key string) []string {
	switch key {
	case "DEVTOOLS_MCP_TOOLS":
		if len(f.Tools.Enabled) > 0 {
			return f.Tools.Enabled
		}
	case "DEVTOOLS_MCP_DISABLED_TOOLS":
		if len(f.Tools.Disabled) > 0 {
			return f.Tools.Disabled
		}
	}
	if v := f.setting(key); v != "" {
		return splitList(v)
	}
	return nil
}

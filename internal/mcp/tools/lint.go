package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/usestring/devtools-mcp/internal/lint"
	"github.com/usestring/devtools-mcp/internal/npm"
	"github.com/usestring/devtools-mcp/internal/runner"
)

// LintInput is the input for lint.
type LintInput struct {
	Dir     string   `json:"dir,omitempty" jsonschema:"Module directory (default: server working directory)"`
	Paths   []string `json:"paths,omitempty" jsonschema:"Paths or package patterns to lint (default: golangci-lint's own default)"`
	Compact *bool    `json:"compact,omitempty" jsonschema:"Set false to always return the full record"`
}

func (in LintInput) CompactFlag() *bool { return in.Compact }

// NpmAuditInput is the input for npm_audit.
type NpmAuditInput struct {
	Dir        string `json:"dir,omitempty" jsonschema:"Project directory containing package-lock.json"`
	Level      string `json:"level,omitempty" jsonschema:"Minimum severity: info, low, moderate, high or critical"`
	Production bool   `json:"production,omitempty" jsonschema:"Skip devDependencies"`
	Compact    *bool  `json:"compact,omitempty" jsonschema:"Set false to always return the full record"`
}

func (in NpmAuditInput) CompactFlag() *bool { return in.Compact }

// ToolLint runs golangci-lint.
func ToolLint(d *Deps) ShapedHandler[LintInput, lint.Report] {
	return func(ctx context.Context, input LintInput) (lint.Report, *runner.Result, error) {
		if err := runner.AssertNoFlagInjectionAll(input.Paths, "paths"); err != nil {
			return lint.Report{}, nil, err
		}
		return d.Lint.Run(ctx, lint.Options{Dir: input.Dir, Paths: input.Paths})
	}
}

// ToolNpmAudit runs npm audit.
func ToolNpmAudit(d *Deps) ShapedHandler[NpmAuditInput, npm.Audit] {
	return func(ctx context.Context, input NpmAuditInput) (npm.Audit, *runner.Result, error) {
		level := strings.ToLower(input.Level)
		if level != "" && !slices.Contains(npm.Severities, level) {
			return npm.Audit{}, nil, ErrInvalidInput(fmt.Sprintf(
				"invalid level %q, must be one of: %s", input.Level, strings.Join(npm.Severities, ", ")))
		}
		return d.Npm.Audit(ctx, npm.AuditOptions{
			Dir:        input.Dir,
			Level:      level,
			Production: input.Production,
		})
	}
}

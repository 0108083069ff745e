package tools

import (
	"github.com/usestring/devtools-mcp/internal/config"
	"github.com/usestring/devtools-mcp/internal/gitcmd"
	"github.com/usestring/devtools-mcp/internal/gocmd"
	"github.com/usestring/devtools-mcp/internal/lint"
	"github.com/usestring/devtools-mcp/internal/npm"
)

// ToolInfo describes a tool for registration and listing.
type ToolInfo struct {
	Name        string
	Group       string
	Description string
}

const compactNote = " Output is the full record unless the raw CLI text would have been smaller, in which case a compact summary is returned; pass compact=false to always get the full record. _meta.representation names the shape."

var (
	toolGitStatus = ToolInfo{
		Name:        "git_status",
		Group:       gitcmd.Group,
		Description: "Show the working tree status: branch, upstream divergence, staged, modified, untracked and conflicted paths, and the stash count." + compactNote,
	}
	toolGitLog = ToolInfo{
		Name:        "git_log",
		Group:       gitcmd.Group,
		Description: "List recent commits with hash, author, date, subject and body. Optionally limited to a ref or a path." + compactNote,
	}
	toolGitDiff = ToolInfo{
		Name:        "git_diff",
		Group:       gitcmd.Group,
		Description: "Summarize changes per file (additions, deletions, binary) against the index, a ref, or staged changes." + compactNote,
	}
	toolGoBuild = ToolInfo{
		Name:        "go_build",
		Group:       gocmd.Group,
		Description: "Compile Go packages and return compiler diagnostics with file, line and column." + compactNote,
	}
	toolGoTest = ToolInfo{
		Name:        "go_test",
		Group:       gocmd.Group,
		Description: "Run Go tests and return pass/fail/skip counts, per-package outcomes and the output of failing tests." + compactNote,
	}
	toolLint = ToolInfo{
		Name:        "lint",
		Group:       lint.Group,
		Description: "Run golangci-lint and return diagnostics with file, position, severity and linter." + compactNote,
	}
	toolNpmAudit = ToolInfo{
		Name:        "npm_audit",
		Group:       npm.Group,
		Description: "Run npm audit and return vulnerable packages with severity, affected range and fix availability." + compactNote,
	}
)

// Catalog lists every tool this server provides, in registration order.
func Catalog() []ToolInfo {
	return []ToolInfo{
		toolGitStatus, toolGitLog, toolGitDiff,
		toolGoBuild, toolGoTest,
		toolLint,
		toolNpmAudit,
	}
}

// ToolStatus is a catalog entry with its policy outcome.
type ToolStatus struct {
	ToolInfo
	Enabled bool
}

// CatalogStatus reports which tools cfg enables.
func CatalogStatus(cfg *config.Config) []ToolStatus {
	tools := Catalog()
	out := make([]ToolStatus, len(tools))
	for i, t := range tools {
		out[i] = ToolStatus{ToolInfo: t, Enabled: cfg.ToolEnabled(t.Name, t.Group)}
	}
	return out
}

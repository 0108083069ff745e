package tools

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/devtools-mcp/internal/gitcmd"
	"github.com/usestring/devtools-mcp/internal/gocmd"
	"github.com/usestring/devtools-mcp/internal/lint"
	"github.com/usestring/devtools-mcp/internal/npm"
)

// Register registers every tool the configuration enables and returns the
// names it registered.
func Register(srv *sdkmcp.Server, d *Deps) []string {
	var registered []string
	add := func(info ToolInfo, register func()) {
		if !d.Config.ToolEnabled(info.Name, info.Group) {
			d.logger().Debug("tool disabled", slog.String("tool", info.Name), slog.String("group", info.Group))
			return
		}
		register()
		registered = append(registered, info.Name)
	}

	add(toolGitStatus, func() { AddTool(srv, d, toolGitStatus, gitcmd.StatusResult, ToolGitStatus(d)) })
	add(toolGitLog, func() { AddTool(srv, d, toolGitLog, gitcmd.LogResult, ToolGitLog(d)) })
	add(toolGitDiff, func() { AddTool(srv, d, toolGitDiff, gitcmd.DiffResult, ToolGitDiff(d)) })
	add(toolGoBuild, func() { AddTool(srv, d, toolGoBuild, gocmd.BuildResult, ToolGoBuild(d)) })
	add(toolGoTest, func() { AddTool(srv, d, toolGoTest, gocmd.TestResult, ToolGoTest(d)) })
	add(toolLint, func() { AddTool(srv, d, toolLint, lint.Result, ToolLint(d)) })
	add(toolNpmAudit, func() { AddTool(srv, d, toolNpmAudit, npm.AuditResult, ToolNpmAudit(d)) })

	return registered
}

package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleFixBuild implements the build, test and lint repair workflow.
func HandleFixBuild(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		packages := "./..."
		if v := req.Params.Arguments["packages"]; v != "" {
			packages = v
		}

		var sb strings.Builder

		sb.WriteString("# Get a Go Module Back to Green\n\n")
		sb.WriteString("You are fixing a Go module until it builds, its tests pass and the linter is quiet. ")
		sb.WriteString("Work from structured tool results rather than raw terminal output.\n\n")

		sb.WriteString("## Context Usage Guide\n\n")
		sb.WriteString("- Results start compact when the module is noisy. Counts and package names are enough to pick the next target.\n")
		sb.WriteString("- Force `compact: false` only on a narrowed package set, when you need file, line and message.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("```\n")
		step := 1
		if cfg.has("git_status") {
			fmt.Fprintf(&sb, "# Step %d: See what is already modified\ngit_status()\n\n", step)
			step++
		}
		if cfg.has("go_build") {
			fmt.Fprintf(&sb, "# Step %d: Compile; fix every diagnostic before running tests\ngo_build(packages=[%q])\n\n", step, packages)
			step++
		}
		if cfg.has("go_test") {
			fmt.Fprintf(&sb, "# Step %d: Run tests; then rerun one failing package with compact=false\ngo_test(packages=[%q])\n\n", step, packages)
			step++
		}
		if cfg.has("lint") {
			fmt.Fprintf(&sb, "# Step %d: Lint once tests pass\nlint(paths=[%q])\n\n", step, packages)
			step++
		}
		if cfg.has("git_diff") {
			fmt.Fprintf(&sb, "# Step %d: Review the size of your change\ngit_diff()\n", step)
		}
		sb.WriteString("```\n\n")

		sb.WriteString("## If Things Go Wrong\n\n")
		sb.WriteString("- **CLI_NOT_FOUND?** Report the missing binary; do not try to install it.\n")
		sb.WriteString("- **TIMEOUT?** Narrow `packages` and run again.\n")
		sb.WriteString("- **Same failure after a fix?** Rerun the single package with `compact: false` and read the test output.\n\n")

		sb.WriteString("## Success Criteria\n\n")
		sb.WriteString("Task is complete when `success` is true for build, test and lint on the requested packages.\n")

		return &sdkmcp.GetPromptResult{
			Description: "Workflow for fixing build, test and lint failures in a Go module",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}

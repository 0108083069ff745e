package prompts

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleBasePrompt serves the tool usage guide. Rows for tools the policy
// disabled are left out.
func HandleBasePrompt(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# Efficient Tool Usage Guide\n\n")

		sb.WriteString("## Full vs Compact Results\n\n")
		sb.WriteString("Every tool returns one of two shapes, named by `_meta.representation`:\n")
		sb.WriteString("- `full`: the complete typed record (every file, commit, diagnostic, vulnerability)\n")
		sb.WriteString("- `compact`: a summary with counts and names, returned only when the raw CLI text would have cost fewer tokens than the full record\n\n")
		sb.WriteString("**Key rules**:\n")
		sb.WriteString("- Leave `compact` unset to let the server pick the cheaper shape\n")
		sb.WriteString("- Pass `compact: false` when you need per-item detail (line numbers, messages, hashes)\n")
		sb.WriteString("- A compact result is never a truncation: counts in it are exact\n")
		sb.WriteString("- Output schemas are an `anyOf` over both shapes; `devtools://schema/{result_type}` serves them\n")

		sb.WriteString("\n## Tools\n\n")
		sb.WriteString("| Goal | Tool | Example |\n")
		sb.WriteString("|------|------|--------|\n")
		rows := []struct{ tool, goal, example string }{
			{"git_status", "What changed in the working tree", "`git_status()`"},
			{"git_log", "Recent history of a file or ref", "`git_log(path: \"internal/api\", max_count: 10)`"},
			{"git_diff", "Size of pending changes per file", "`git_diff(staged: true)`"},
			{"go_build", "Does it compile", "`go_build(packages: [\"./...\"])`"},
			{"go_test", "Which tests fail and why", "`go_test(packages: [\"./internal/...\"], run: \"TestParse\")`"},
			{"lint", "Static analysis findings", "`lint(paths: [\"./pkg/...\"])`"},
			{"npm_audit", "Vulnerable JavaScript dependencies", "`npm_audit(level: \"high\")`"},
		}
		for _, r := range rows {
			if !cfg.has(r.tool) {
				continue
			}
			sb.WriteString("| " + r.goal + " | `" + r.tool + "` | " + r.example + " |\n")
		}

		sb.WriteString("\n## Errors\n\n")
		sb.WriteString("Failures come back as tool errors whose text starts with a code:\n")
		sb.WriteString("- `CLI_NOT_FOUND`: the binary is not installed or not on PATH\n")
		sb.WriteString("- `CLI_FAILED`: the command exited with an unexpected status or printed output that could not be parsed\n")
		sb.WriteString("- `TIMEOUT`: the command ran past its deadline\n")
		sb.WriteString("- `INVALID_INPUT`: an argument was rejected, e.g. a value starting with `-`\n")
		sb.WriteString("- `TOOL_DISABLED`: the server policy turned the tool off\n")
		sb.WriteString("- `SCHEMA_VIOLATION`, `ESTIMATOR_ANOMALY`, `INTERNAL`: server defects; report them rather than retrying\n")

		sb.WriteString("\n## Tips\n")
		sb.WriteString("- A failing build or test run is a successful tool call: read `success` and the counts\n")
		sb.WriteString("- Narrow `packages` or `paths` before forcing full output on a large module\n")

		return &sdkmcp.GetPromptResult{
			Description: "Essential guide for efficient tool usage",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}

package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "devtools_guide",
		Description: "RECOMMENDED: Start here. Explains full vs compact results, which tool answers which question, and the error codes.",
	}, HandleBasePrompt(cfg))

	if cfg.has("go_build") || cfg.has("go_test") || cfg.has("lint") {
		srv.AddPrompt(&sdkmcp.Prompt{
			Name:        "fix_build",
			Description: "Step-by-step workflow for getting a Go module to build, pass tests and lint clean.",
			Arguments: []*sdkmcp.PromptArgument{
				{
					Name:        "packages",
					Description: "Package pattern to work on (default ./...)",
					Required:    false,
				},
			},
		}, HandleFixBuild(cfg))
	}
}

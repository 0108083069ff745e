// Package prompts contains MCP prompt implementations for the devtools server.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	// Enabled names the tools the server registered. Prompts only suggest
	// tools found here.
	Enabled map[string]bool
}

func (c *Config) has(tool string) bool {
	return c != nil && c.Enabled[tool]
}

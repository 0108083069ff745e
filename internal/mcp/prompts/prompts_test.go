package prompts

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptText(t *testing.T, res *sdkmcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestBasePrompt_OnlyEnabledTools(t *testing.T) {
	cfg := &Config{Enabled: map[string]bool{"git_status": true, "go_test": true}}
	res, err := HandleBasePrompt(cfg)(context.Background(), &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{Name: "devtools_guide"}})
	require.NoError(t, err)

	text := promptText(t, res)
	assert.Contains(t, text, "`git_status`")
	assert.Contains(t, text, "`go_test`")
	assert.NotContains(t, text, "`npm_audit`")
	assert.Contains(t, text, "_meta.representation")
}

func TestFixBuild_Packages(t *testing.T) {
	cfg := &Config{Enabled: map[string]bool{"go_build": true, "go_test": true}}
	req := &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{
		Name:      "fix_build",
		Arguments: map[string]string{"packages": "./internal/..."},
	}}
	res, err := HandleFixBuild(cfg)(context.Background(), req)
	require.NoError(t, err)

	text := promptText(t, res)
	assert.Contains(t, text, `# Step 1: Compile`)
	assert.Contains(t, text, `go_build(packages=["./internal/..."])`)
	assert.Contains(t, text, `# Step 2: Run tests`)
	assert.NotContains(t, text, "lint(")
}

func TestFixBuild_DefaultPackages(t *testing.T) {
	cfg := &Config{Enabled: map[string]bool{"go_build": true}}
	res, err := HandleFixBuild(cfg)(context.Background(), &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{Name: "fix_build"}})
	require.NoError(t, err)
	assert.Contains(t, promptText(t, res), `go_build(packages=["./..."])`)
}

package mcpsrv

import (
	"context"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/devtools-mcp/internal/config"
	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/internal/runner/runnertest"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

func testConfig() *config.Config {
	return &config.Config{
		CompactEstimator:     "tokens",
		CompactDefault:       "auto",
		PreviewMaxArrayItems: 3,
		PreviewMaxStringLen:  200,
		LogLevel:             "error",
		LogFormat:            "text",
	}
}

type releases struct {
	Names []string `json:"names,omitempty"`
}

type releaseCount struct {
	Count int `json:"count"`
}

var releasesResult = compaction.NewResultType("releases",
	compaction.ProjectionFunc[releases, releaseCount](func(r releases) releaseCount { return releaseCount{Count: len(r.Names)} }),
	func(r releases) string { return strings.Join(r.Names, "\n") },
	func(c releaseCount) string { return "releases" })

type listInput struct {
	Compact *bool `json:"compact,omitempty"`
}

func (in listInput) CompactFlag() *bool { return in.Compact }

func connectClient(t *testing.T, s *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	st, ct := sdkmcp.NewInMemoryTransports()
	ss, err := s.Connect(ctx, st)
	require.NoError(t, err)
	cs, err := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "0.0.0"}, nil).Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func TestNewServer_BuiltinTools(t *testing.T) {
	s, err := NewServer(WithConfig(testConfig()), WithRunner(runnertest.New()))
	require.NoError(t, err)
	defer s.Close()

	assert.ElementsMatch(t, []string{"git_status", "git_log", "git_diff", "go_build", "go_test", "lint", "npm_audit"}, s.Tools())
	assert.NotNil(t, s.Deps().Engine)
	assert.NotNil(t, s.Deps().Schemas)
}

func TestNewServer_ShapedTool(t *testing.T) {
	fake := runnertest.New().On("helm list -q", runnertest.Response{Stdout: "api\nweb\nworker\n"})
	s, err := NewServer(
		WithConfig(testConfig()),
		WithRunner(fake),
		WithoutBuiltinTools(),
		WithShapedTool(ToolInfo{Name: "helm_list", Group: "helm"}, releasesResult,
			func(d *Deps) func(context.Context, listInput) (releases, *Result, error) {
				return func(ctx context.Context, in listInput) (releases, *Result, error) {
					res, err := d.Runner.Run(ctx, Command{Name: "helm", Args: []string{"list", "-q"}})
					if err != nil {
						return releases{}, nil, err
					}
					return releases{Names: strings.Fields(res.Stdout)}, res, nil
				}
			}),
	)
	require.NoError(t, err)
	defer s.Close()
	assert.Empty(t, s.Tools())

	cs := connectClient(t, s)
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "helm_list", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "full", res.Meta["representation"])
	assert.Equal(t, []string{"helm list -q"}, fake.Calls())
}

func TestNewServer_ShapedToolHonorsPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.DisabledTools = []string{"helm"}
	s, err := NewServer(
		WithConfig(cfg),
		WithRunner(runnertest.New()),
		WithShapedTool(ToolInfo{Name: "helm_list", Group: "helm"}, releasesResult,
			func(d *Deps) func(context.Context, listInput) (releases, *Result, error) {
				return func(context.Context, listInput) (releases, *Result, error) {
					return releases{}, &runner.Result{}, nil
				}
			}),
	)
	require.NoError(t, err)
	defer s.Close()

	cs := connectClient(t, s)
	list, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	for _, tool := range list.Tools {
		assert.NotEqual(t, "helm_list", tool.Name)
	}
}

func TestNewServer_InvalidEnvironment(t *testing.T) {
	t.Setenv("COMPACT_ESTIMATOR", "words")
	_, err := NewServer(WithRunner(runnertest.New()))
	assert.ErrorContains(t, err, "COMPACT_ESTIMATOR")
}

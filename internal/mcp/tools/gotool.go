package tools

import (
	"context"

	"github.com/usestring/devtools-mcp/internal/gocmd"
	"github.com/usestring/devtools-mcp/internal/runner"
)

// GoBuildInput is the input for go_build.
type GoBuildInput struct {
	Dir      string   `json:"dir,omitempty" jsonschema:"Module directory (default: server working directory)"`
	Packages []string `json:"packages,omitempty" jsonschema:"Package patterns (default: ./...)"`
	Compact  *bool    `json:"compact,omitempty" jsonschema:"Set false to always return the full record"`
}

func (in GoBuildInput) CompactFlag() *bool { return in.Compact }

// GoTestInput is the input for go_test.
type GoTestInput struct {
	Dir      string   `json:"dir,omitempty" jsonschema:"Module directory (default: server working directory)"`
	Packages []string `json:"packages,omitempty" jsonschema:"Package patterns (default: ./...)"`
	Run      string   `json:"run,omitempty" jsonschema:"Only run tests matching this regular expression"`
	Short    bool     `json:"short,omitempty" jsonschema:"Pass -short"`
	Compact  *bool    `json:"compact,omitempty" jsonschema:"Set false to always return the full record"`
}

func (in GoTestInput) CompactFlag() *bool { return in.Compact }

// ToolGoBuild compiles packages.
func ToolGoBuild(d *Deps) ShapedHandler[GoBuildInput, gocmd.Build] {
	return func(ctx context.Context, input GoBuildInput) (gocmd.Build, *runner.Result, error) {
		if err := runner.AssertNoFlagInjectionAll(input.Packages, "packages"); err != nil {
			return gocmd.Build{}, nil, err
		}
		return d.Go.Build(ctx, gocmd.BuildOptions{Dir: input.Dir, Packages: input.Packages})
	}
}

// ToolGoTest runs tests.
func ToolGoTest(d *Deps) ShapedHandler[GoTestInput, gocmd.TestRun] {
	return func(ctx context.Context, input GoTestInput) (gocmd.TestRun, *runner.Result, error) {
		if err := runner.AssertNoFlagInjectionAll(input.Packages, "packages"); err != nil {
			return gocmd.TestRun{}, nil, err
		}
		if err := runner.AssertNoFlagInjection(input.Run, "run"); err != nil {
			return gocmd.TestRun{}, nil, err
		}
		return d.Go.Test(ctx, gocmd.TestOptions{
			Dir:      input.Dir,
			Packages: input.Packages,
			Run:      input.Run,
			Short:    input.Short,
		})
	}
}

package tools

import (
	"context"

	"github.com/usestring/devtools-mcp/internal/gitcmd"
	"github.com/usestring/devtools-mcp/internal/runner"
)

// GitStatusInput is the input for git_status.
type GitStatusInput struct {
	Dir     string `json:"dir,omitempty" jsonschema:"Repository directory (default: server working directory)"`
	Compact *bool  `json:"compact,omitempty" jsonschema:"Set false to always return the full record"`
}

func (in GitStatusInput) CompactFlag() *bool { return in.Compact }

// GitLogInput is the input for git_log.
type GitLogInput struct {
	Dir      string `json:"dir,omitempty" jsonschema:"Repository directory (default: server working directory)"`
	Ref      string `json:"ref,omitempty" jsonschema:"Revision or range to list, e.g. main or v1.2.0..HEAD"`
	Path     string `json:"path,omitempty" jsonschema:"Only commits touching this path"`
	MaxCount int    `json:"max_count,omitempty" jsonschema:"Maximum number of commits (default: 20)"`
	Compact  *bool  `json:"compact,omitempty" jsonschema:"Set false to always return the full record"`
}

func (in GitLogInput) CompactFlag() *bool { return in.Compact }

// GitDiffInput is the input for git_diff.
type GitDiffInput struct {
	Dir     string   `json:"dir,omitempty" jsonschema:"Repository directory (default: server working directory)"`
	Ref     string   `json:"ref,omitempty" jsonschema:"Revision to compare against (default: the index)"`
	Staged  bool     `json:"staged,omitempty" jsonschema:"Compare staged changes instead of the working tree"`
	Paths   []string `json:"paths,omitempty" jsonschema:"Limit the diff to these paths"`
	Compact *bool    `json:"compact,omitempty" jsonschema:"Set false to always return the full record"`
}

func (in GitDiffInput) CompactFlag() *bool { return in.Compact }

// ToolGitStatus reports the working tree status.
func ToolGitStatus(d *Deps) ShapedHandler[GitStatusInput, gitcmd.Status] {
	return func(ctx context.Context, input GitStatusInput) (gitcmd.Status, *runner.Result, error) {
		return d.Git.Status(ctx, input.Dir)
	}
}

// ToolGitLog lists commits.
func ToolGitLog(d *Deps) ShapedHandler[GitLogInput, gitcmd.Log] {
	return func(ctx context.Context, input GitLogInput) (gitcmd.Log, *runner.Result, error) {
		if input.MaxCount < 0 {
			return gitcmd.Log{}, nil, ErrInvalidInput("max_count must not be negative")
		}
		if err := runner.AssertNoFlagInjection(input.Ref, "ref"); err != nil {
			return gitcmd.Log{}, nil, err
		}
		if err := runner.AssertNoFlagInjection(input.Path, "path"); err != nil {
			return gitcmd.Log{}, nil, err
		}
		return d.Git.Log(ctx, gitcmd.LogOptions{
			Dir:      input.Dir,
			Ref:      input.Ref,
			Path:     input.Path,
			MaxCount: input.MaxCount,
		})
	}
}

// ToolGitDiff summarizes changes per file.
func ToolGitDiff(d *Deps) ShapedHandler[GitDiffInput, gitcmd.Diff] {
	return func(ctx context.Context, input GitDiffInput) (gitcmd.Diff, *runner.Result, error) {
		if err := runner.AssertNoFlagInjection(input.Ref, "ref"); err != nil {
			return gitcmd.Diff{}, nil, err
		}
		if err := runner.AssertNoFlagInjectionAll(input.Paths, "paths"); err != nil {
			return gitcmd.Diff{}, nil, err
		}
		return d.Git.Diff(ctx, gitcmd.DiffOptions{
			Dir:    input.Dir,
			Ref:    input.Ref,
			Staged: input.Staged,
			Paths:  input.Paths,
		})
	}
}

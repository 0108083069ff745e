package tools

import (
	"fmt"
	"log/slog"

	"github.com/usestring/devtools-mcp/internal/config"
	"github.com/usestring/devtools-mcp/internal/gitcmd"
	"github.com/usestring/devtools-mcp/internal/gocmd"
	"github.com/usestring/devtools-mcp/internal/lint"
	"github.com/usestring/devtools-mcp/internal/npm"
	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/internal/schema"
	"github.com/usestring/devtools-mcp/pkg/compaction"
	"github.com/usestring/devtools-mcp/pkg/jsoncompact"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config  *config.Config
	Runner  runner.Runner
	Engine  *compaction.Engine
	Schemas *schema.Harness
	Logger  *slog.Logger

	Git  *gitcmd.Git
	Go   *gocmd.Go
	Lint *lint.Linter
	Npm  *npm.Npm
}

// NewDeps wires the compaction engine, the schema harness and the CLI
// wrappers around r.
func NewDeps(cfg *config.Config, r runner.Runner) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if r == nil {
		return nil, fmt.Errorf("runner is required")
	}
	h, err := schema.NewHarness(cfg.SchemaCacheSize)
	if err != nil {
		return nil, fmt.Errorf("schema harness: %w", err)
	}
	return &Deps{
		Config:  cfg,
		Runner:  r,
		Engine:  compaction.NewEngine(cfg.Estimator()),
		Schemas: h,
		Logger:  slog.Default(),
		Git:     gitcmd.New(r),
		Go:      gocmd.New(r),
		Lint:    lint.New(r),
		Npm:     npm.New(r),
	}, nil
}

func (d *Deps) previewOptions() *jsoncompact.Options {
	return &jsoncompact.Options{
		MaxArrayItems: d.Config.PreviewMaxArrayItems,
		MaxStringLen:  d.Config.PreviewMaxStringLen,
	}
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

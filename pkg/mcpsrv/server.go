package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/devtools-mcp/internal/config"
	"github.com/usestring/devtools-mcp/internal/logging"
	"github.com/usestring/devtools-mcp/internal/mcp"
	"github.com/usestring/devtools-mcp/internal/mcp/tools"
	"github.com/usestring/devtools-mcp/internal/runner"
)

// Server is the devtools MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin CLI tools.
//
// Configuration is loaded from the environment unless WithConfig is given.
// Use functional options to configure logging, add custom tools, etc.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.config == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg.config = loaded
	}

	// Setup logging
	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		Format:     cfg.config.LogFormat,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	if cfg.logFormat != "" {
		logCfg.Format = cfg.logFormat
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	r := cfg.runner
	if r == nil {
		r = runner.NewExec(runner.Options{
			Timeout:        cfg.config.CLITimeout,
			MaxConcurrent:  cfg.config.CLIMaxConcurrent,
			MaxOutputBytes: cfg.config.CLIMaxOutputBytes,
		})
	}

	deps, err := tools.NewDeps(cfg.config, r)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create deps: %w", err)
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	plain := append(append(append([]func(*sdkmcp.Server){}, cfg.toolRegistrations...),
		cfg.promptRegistrations...), cfg.resourceRegistrations...)
	for _, fn := range plain {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server, _ *tools.Deps) {
			fn(srv)
		}))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}

	internal, err := mcp.NewServer(deps, internalOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	slog.Debug("server created",
		slog.Any("tools", internal.Registered()),
		slog.String("estimator", cfg.config.CompactEstimator),
		slog.String("compact_default", cfg.config.CompactDefault),
		slog.String("config_file", cfg.config.File),
	)

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Connect serves a single session over t and returns once the session is
// established. Useful for in-process clients and tests.
func (s *Server) Connect(ctx context.Context, t sdkmcp.Transport) (*sdkmcp.ServerSession, error) {
	return s.internal.MCPServer().Connect(ctx, t, nil)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// Tools returns the names of the builtin tools that were registered.
func (s *Server) Tools() []string {
	return s.internal.Registered()
}

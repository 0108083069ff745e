package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/devtools-mcp/internal/mcp/prompts"
	"github.com/usestring/devtools-mcp/internal/mcp/tools"
)

// Implementation name and version reported to clients.
const (
	Name    = "devtools-mcp"
	Version = "1.0.0"
)

// Server wraps the MCP server with the CLI tools.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	enableBuiltinTools bool
	registered         []string

	// Custom extension registration callbacks
	customRegistrations []func(*sdkmcp.Server, *tools.Deps)
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithBuiltinTools enables the builtin CLI tools allowed by the tool policy.
func WithBuiltinTools() ServerOption {
	return func(s *Server) {
		s.enableBuiltinTools = true
	}
}

// WithCustomRegistration adds a custom registration callback. The callback
// receives the underlying MCP server and the shared dependencies, so extra
// tools can go through tools.AddTool and get the same compaction and
// validation.
func WithCustomRegistration(fn func(*sdkmcp.Server, *tools.Deps)) ServerOption {
	return func(s *Server) {
		s.customRegistrations = append(s.customRegistrations, fn)
	}
}

// NewServer creates a new MCP server with the provided dependencies and options.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil {
		return nil, fmt.Errorf("deps is required")
	}

	s := &Server{deps: deps}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    Name,
			Version: Version,
		},
		nil,
	)
	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware(deps.Logger))

	if s.enableBuiltinTools {
		s.registered = tools.Register(s.mcpServer, deps)
	}
	for _, fn := range s.customRegistrations {
		fn(s.mcpServer, deps)
	}

	s.registerResources()
	enabled := make(map[string]bool, len(s.registered))
	for _, name := range s.registered {
		enabled[name] = true
	}
	prompts.Register(s.mcpServer, &prompts.Config{Enabled: enabled})

	return s, nil
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// Registered returns the names of the builtin tools that were registered.
func (s *Server) Registered() []string {
	return s.registered
}

// MCPServer returns the underlying MCP server for testing.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}

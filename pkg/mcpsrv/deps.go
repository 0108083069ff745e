package mcpsrv

import (
	"github.com/usestring/devtools-mcp/internal/mcp/tools"
	"github.com/usestring/devtools-mcp/internal/runner"
)

// Deps contains all dependencies available to custom tools: the
// configuration, the CLI runner, the compaction engine, the schema harness
// and the CLI wrappers. Custom tools get the same infrastructure as the
// builtin ones.
type Deps = tools.Deps

// Shaped is implemented by tool inputs that carry the compact flag.
type Shaped = tools.Shaped

// ToolInfo names a tool, its policy group and its description.
type ToolInfo = tools.ToolInfo

// Runner types, re-exported for custom tools.
type (
	Runner  = runner.Runner
	Command = runner.Command
	Result  = runner.Result
)

package mcpsrv

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/devtools-mcp/internal/mcp/tools"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// AddTool registers a compaction-aware tool. The handler returns the full
// record and the CLI result whose text is the size baseline; the server
// decides between the full and compact shape of rt, validates the payload
// and sets _meta.representation.
//
// AddTool panics at registration if the zero value of either shape fails
// its schema, for example a nil slice without omitempty.
func AddTool[In Shaped, F, C any](srv *sdkmcp.Server, d *Deps, info ToolInfo, rt *compaction.ResultType[F, C], h func(context.Context, In) (F, *Result, error)) {
	tools.AddTool[In, F, C](srv, d, info, rt, h)
}

// Package mcpsrv provides an extensible MCP server that wraps developer
// command-line tools.
//
// Every builtin tool runs a CLI, parses its output into a typed full record
// and returns either that record or a compact summary of it, whichever
// costs fewer tokens than the raw CLI text would have. Callers pass
// compact=false to always get the full record. The chosen shape is reported
// in _meta.representation and both shapes are validated against their JSON
// Schemas before they are sent.
//
// # Basic Usage
//
// Create a server with configuration loaded from the environment:
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Add a compaction-aware tool. The input type carries the compact flag and
// the handler returns the full record with the CLI result:
//
//	type HelmListInput struct {
//	    Compact *bool `json:"compact,omitempty"`
//	}
//
//	func (in HelmListInput) CompactFlag() *bool { return in.Compact }
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithShapedTool(mcpsrv.ToolInfo{Name: "helm_list", Group: "helm"}, releasesResult,
//	        func(d *mcpsrv.Deps) func(context.Context, HelmListInput) (Releases, *mcpsrv.Result, error) {
//	            return func(ctx context.Context, in HelmListInput) (Releases, *mcpsrv.Result, error) {
//	                res, err := d.Runner.Run(ctx, mcpsrv.Command{Name: "helm", Args: []string{"list", "-o", "json"}})
//	                ...
//	            }
//	        }),
//	)
//
// Plain SDK tools can be added with WithTool.
//
// # Configuration
//
// Configure logging and other options:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/devtools-mcp.log"),
//	)
package mcpsrv

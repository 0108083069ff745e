package tools

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/devtools-mcp/internal/logging"
	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/pkg/compaction"
	"github.com/usestring/devtools-mcp/pkg/jsoncompact"
)

// MetaRepresentation is the _meta key naming the shape of the structured
// output.
const MetaRepresentation = "representation"

// respond chooses the representation of full, validates the payload against
// the schema of that representation and builds the tool result. A payload
// that fails validation is never sent.
func respond[F, C any](ctx context.Context, d *Deps, rt *compaction.ResultType[F, C], full F, res *runner.Result, pref compaction.Preference) (*sdkmcp.CallToolResult, any, error) {
	raw := ""
	if res != nil {
		raw = res.Output()
	}

	out, err := compaction.Decide(d.Engine, rt, full, raw, pref)
	if err != nil {
		return nil, nil, wrapShapeError(ctx, rt.Name(), err)
	}
	if err := d.Schemas.Validate(rt.Name(), out.Representation, out.Payload); err != nil {
		return nil, nil, wrapShapeError(ctx, rt.Name(), err)
	}

	log := logging.FromContext(ctx)
	if log.Enabled(ctx, slog.LevelDebug) {
		attrs := []slog.Attr{
			slog.String("representation", string(out.Representation)),
			slog.String("preference", pref.String()),
			slog.Bool("measured", out.Costs.Measured),
			slog.Int64("full_cost", int64(out.Costs.Full)),
			slog.Int64("baseline_cost", int64(out.Costs.Baseline)),
		}
		if res != nil {
			attrs = append(attrs,
				slog.Int("exit_code", res.ExitCode),
				slog.Int64("duration_ms", res.DurationMs()),
				slog.Bool("truncated", res.Truncated),
			)
		}
		if preview, err := jsoncompact.Preview(out.Payload, d.previewOptions()); err == nil {
			attrs = append(attrs, slog.String("preview", preview))
		}
		log.LogAttrs(ctx, slog.LevelDebug, "tool response", attrs...)
	}

	return &sdkmcp.CallToolResult{
		Meta: sdkmcp.Meta{MetaRepresentation: string(out.Representation)},
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: out.Text},
		},
	}, out.Payload, nil
}

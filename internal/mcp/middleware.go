package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoggingMiddleware returns middleware that logs all incoming method calls.
// Tool calls also log the tool name and whether the tool reported an error.
// A nil logger logs to slog.Default().
func LoggingMiddleware(logger *slog.Logger) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			log := logger
			if log == nil {
				log = slog.Default()
			}
			start := time.Now()

			result, err := next(ctx, method, req)

			attrs := []slog.Attr{
				slog.String("method", method),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if p, ok := req.GetParams().(*sdkmcp.CallToolParamsRaw); ok {
				attrs = append(attrs, slog.String("tool", p.Name))
			}
			if r, ok := result.(*sdkmcp.CallToolResult); ok && r != nil {
				attrs = append(attrs, slog.Bool("is_error", r.IsError))
				if rep, ok := r.Meta["representation"].(string); ok {
					attrs = append(attrs, slog.String("representation", rep))
				}
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				log.LogAttrs(ctx, slog.LevelError, "method call failed", attrs...)
			} else {
				log.LogAttrs(ctx, slog.LevelInfo, "method call completed", attrs...)
			}

			return result, err
		}
	}
}

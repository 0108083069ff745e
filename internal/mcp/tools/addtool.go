package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/devtools-mcp/internal/logging"
	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/internal/schema"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// Shaped is implemented by tool inputs that carry the compact flag.
type Shaped interface {
	CompactFlag() *bool
}

// ShapedHandler runs a CLI and returns its full result together with the
// raw CLI result whose text is the size baseline.
type ShapedHandler[In, F any] func(ctx context.Context, in In) (F, *runner.Result, error)

// AddTool registers a tool whose output is either the full or the compact
// shape of rt. The schema pair is registered with the harness, the tool
// advertises the union of both shapes, and the zero values of both shapes
// are checked against it.
//
// Panics if either zero value fails its schema.
func AddTool[In Shaped, F, C any](srv *sdkmcp.Server, d *Deps, info ToolInfo, rt *compaction.ResultType[F, C], h ShapedHandler[In, F]) {
	if err := schema.Register(d.Schemas, rt); err != nil {
		panic(fmt.Sprintf("AddTool %q: %v", info.Name, err))
	}
	out, err := d.Schemas.OutputSchema(rt.Name())
	if err != nil {
		panic(fmt.Sprintf("AddTool %q: %v", info.Name, err))
	}
	CheckOutputSchema(d.Schemas, info.Name, rt, out)

	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:         info.Name,
		Description:  info.Description,
		OutputSchema: out,
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		ctx = logging.WithLogger(ctx, d.logger().With(
			slog.String("tool", info.Name),
			slog.String("invocation_id", uuid.NewString()),
		))
		if !d.Config.ToolEnabled(info.Name, info.Group) {
			return nil, nil, ErrToolDisabled(info.Name)
		}
		full, res, err := h(ctx, in)
		if err != nil {
			return nil, nil, WrapCLIError(ctx, err)
		}
		return respond(ctx, d, rt, full, res, d.Config.ResolvePreference(in.CompactFlag()))
	})
}

// CheckOutputSchema validates the zero value of rt's full shape and its
// projection, both against the harness and against the advertised union
// schema as the SDK resolves it. This catches nil-slice-as-null and
// json.RawMessage fields at startup rather than at runtime.
//
// Panics if validation fails.
func CheckOutputSchema[F, C any](h *schema.Harness, toolName string, rt *compaction.ResultType[F, C], outputSchema map[string]any) {
	for _, t := range []reflect.Type{rt.FullType(), rt.CompactType()} {
		if paths := findRawMessageFields(t, nil, make(map[reflect.Type]bool)); len(paths) > 0 {
			panic(fmt.Sprintf(
				"AddTool %q: output type %s contains json.RawMessage at %s\n"+
					"  json.RawMessage serializes as transparent JSON but the schema generator infers []byte",
				toolName, t, strings.Join(paths, ", "),
			))
		}
	}

	var zero F
	values := []struct {
		rep compaction.Representation
		v   any
	}{
		{compaction.RepresentationFull, zero},
		{compaction.RepresentationCompact, rt.Project(zero)},
	}

	resolved, err := resolveUnion(outputSchema)
	if err != nil {
		panic(fmt.Sprintf("AddTool %q: output schema does not resolve: %v", toolName, err))
	}

	for _, val := range values {
		if err := h.Validate(rt.Name(), val.rep, val.v); err != nil {
			panic(fmt.Sprintf(
				"AddTool %q: zero %s value fails its schema: %v\n"+
					"  Fix: add `omitempty` to nil-defaulting slice fields, or initialize them to empty slices",
				toolName, val.rep, err,
			))
		}
		data, err := json.Marshal(val.v)
		if err != nil {
			panic(fmt.Sprintf("AddTool %q: zero %s value does not marshal: %v", toolName, val.rep, err))
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			panic(fmt.Sprintf("AddTool %q: zero %s value is not an object: %s", toolName, val.rep, data))
		}
		if err := resolved.Validate(&m); err != nil {
			panic(fmt.Sprintf(
				"AddTool %q: zero %s value fails the advertised schema: %v\n  JSON: %s",
				toolName, val.rep, err, data,
			))
		}
	}
}

func resolveUnion(doc map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(&jsonschema.ResolveOptions{})
}

// rawMessageType is the reflect.Type for json.RawMessage.
var rawMessageType = reflect.TypeFor[json.RawMessage]()

// findRawMessageFields recursively walks a type and returns the field paths
// that use json.RawMessage.
func findRawMessageFields(t reflect.Type, path []string, visited map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == rawMessageType {
		return []string{strings.Join(path, ".")}
	}
	if visited[t] {
		return nil
	}
	visited[t] = true
	defer delete(visited, t)

	var found []string
	switch t.Kind() {
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			found = append(found, findRawMessageFields(f.Type, append(path, f.Name), visited)...)
		}
	case reflect.Slice, reflect.Array:
		found = append(found, findRawMessageFields(t.Elem(), append(path, "[]"), visited)...)
	case reflect.Map:
		found = append(found, findRawMessageFields(t.Elem(), append(path, "[value]"), visited)...)
	}
	return found
}

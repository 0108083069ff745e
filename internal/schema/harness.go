// Package schema validates tool payloads against JSON Schemas reflected from
// their Go result types before they reach the transport.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/devtools-mcp/internal/cache"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// DefaultCacheSize is the number of compiled schemas kept when the caller
// does not configure one.
const DefaultCacheSize = 64

// ErrUnknownResultType is returned when validating against a result type that
// was never registered.
var ErrUnknownResultType = errors.New("unknown result type")

// SchemaViolation reports a payload that does not match the schema of its
// representation.
type SchemaViolation struct {
	ResultType     string
	Representation compaction.Representation
	// Path is a JSON Pointer to the first failing location. Empty means the
	// document root.
	Path    string
	Message string
}

func (v *SchemaViolation) Error() string {
	path := v.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("schema violation in %s (%s) at %s: %s", v.ResultType, v.Representation, path, v.Message)
}

// IsViolation reports whether err is or wraps a *SchemaViolation.
func IsViolation(err error) bool {
	var v *SchemaViolation
	return errors.As(err, &v)
}

type pair struct {
	full    reflect.Type
	compact reflect.Type
}

// Harness holds the Full/Compact schema pair of every registered result type.
// It is safe for concurrent use.
type Harness struct {
	reflector *invopop.Reflector
	compiled  *cache.SchemaCache

	mu    sync.RWMutex
	pairs map[string]pair
}

// NewHarness creates a harness whose compiled schema cache holds at most
// cacheSize entries. Evicted schemas are recompiled on demand.
func NewHarness(cacheSize int) (*Harness, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	c, err := cache.NewSchemaCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Harness{
		reflector: &invopop.Reflector{
			Anonymous:      true,
			DoNotReference: true,
		},
		compiled: c,
		pairs:    make(map[string]pair),
	}, nil
}

// Register compiles the schemas of a result type's two shapes.
func Register[F, C any](h *Harness, rt *compaction.ResultType[F, C]) error {
	return h.RegisterTypes(rt.Name(), rt.FullType(), rt.CompactType())
}

// RegisterTypes compiles the schemas for full and compact and records them
// under name. Registering a name twice replaces the earlier pair.
func (h *Harness) RegisterTypes(name string, full, compact reflect.Type) error {
	for _, t := range []reflect.Type{full, compact} {
		if _, err := h.schemaFor(t); err != nil {
			return fmt.Errorf("result type %s: %w", name, err)
		}
	}
	h.mu.Lock()
	h.pairs[name] = pair{full: full, compact: compact}
	h.mu.Unlock()
	return nil
}

// Document returns the reflected JSON Schema of t as a generic JSON value.
func (h *Harness) Document(t reflect.Type) (map[string]any, error) {
	data, err := json.Marshal(h.reflector.ReflectFromType(t))
	if err != nil {
		return nil, fmt.Errorf("marshaling schema for %s: %w", t, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling schema for %s: %w", t, err)
	}
	return doc, nil
}

// OutputSchema returns the schema a tool advertises for a registered result
// type: an object matching either the full or the compact shape.
func (h *Harness) OutputSchema(resultType string) (map[string]any, error) {
	h.mu.RLock()
	p, ok := h.pairs[resultType]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResultType, resultType)
	}

	branches := make([]any, 0, 2)
	for _, b := range []struct {
		rep compaction.Representation
		t   reflect.Type
	}{{compaction.RepresentationFull, p.full}, {compaction.RepresentationCompact, p.compact}} {
		doc, err := h.Document(b.t)
		if err != nil {
			return nil, err
		}
		delete(doc, "$schema")
		delete(doc, "$id")
		doc["title"] = string(b.rep)
		branches = append(branches, doc)
	}
	return map[string]any{
		"type":  "object",
		"anyOf": branches,
	}, nil
}

// Validate checks payload against the schema selected by rep. It returns nil,
// a *SchemaViolation, or an error wrapping ErrUnknownResultType.
func (h *Harness) Validate(resultType string, rep compaction.Representation, payload any) error {
	h.mu.RLock()
	p, ok := h.pairs[resultType]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResultType, resultType)
	}

	var t reflect.Type
	switch rep {
	case compaction.RepresentationFull:
		t = p.full
	case compaction.RepresentationCompact:
		t = p.compact
	default:
		return &SchemaViolation{ResultType: resultType, Representation: rep, Message: "unknown representation"}
	}

	sch, err := h.schemaFor(t)
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return &SchemaViolation{ResultType: resultType, Representation: rep, Message: "payload is not serializable: " + err.Error()}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &SchemaViolation{ResultType: resultType, Representation: rep, Message: "payload is not valid JSON: " + err.Error()}
	}

	if err := sch.Validate(inst); err != nil {
		path, msg := firstFailure(err)
		return &SchemaViolation{ResultType: resultType, Representation: rep, Path: path, Message: msg}
	}
	return nil
}

func (h *Harness) schemaFor(t reflect.Type) (*jsonschema.Schema, error) {
	if sch, ok := h.compiled.Get(t); ok {
		return sch, nil
	}

	doc, err := h.Document(t)
	if err != nil {
		return nil, err
	}

	// Each type gets its own compiler so resource URLs never collide.
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource for %s: %w", t, err)
	}
	sch, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema for %s: %w", t, err)
	}
	h.compiled.Put(t, sch)
	return sch, nil
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

type leaf struct {
	path string
	msg  string
}

// firstFailure returns the first leaf error in JSON Pointer order, so the
// reported path does not depend on the validator's traversal order.
func firstFailure(err error) (string, string) {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "", err.Error()
	}

	var leaves []leaf
	collectLeaves(ve, &leaves)
	if len(leaves) == 0 {
		return pointer(ve.InstanceLocation), ve.ErrorKind.LocalizedString(printer)
	}
	sort.Slice(leaves, func(i, j int) bool {
		if leaves[i].path != leaves[j].path {
			return leaves[i].path < leaves[j].path
		}
		return leaves[i].msg < leaves[j].msg
	})
	return leaves[0].path, leaves[0].msg
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]leaf) {
	if ve.ErrorKind != nil && len(ve.Causes) == 0 {
		msg := ve.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			*out = append(*out, leaf{path: pointer(ve.InstanceLocation), msg: msg})
		}
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

func pointer(loc []string) string {
	if len(loc) == 0 {
		return ""
	}
	escaped := make([]string, len(loc))
	for i, tok := range loc {
		tok = strings.ReplaceAll(tok, "~", "~0")
		escaped[i] = strings.ReplaceAll(tok, "/", "~1")
	}
	return "/" + strings.Join(escaped, "/")
}

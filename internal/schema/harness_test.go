package schema

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/devtools-mcp/pkg/compaction"
)

type item struct {
	ID   int    `json:"id"`
	Note string `json:"note,omitempty"`
}

type fullRecord struct {
	Name  string         `json:"name"`
	Items []item         `json:"items,omitempty"`
	Tags  map[string]int `json:"tags,omitempty"`
}

type compactRecord struct {
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

func newTestHarness(t *testing.T, size int) *Harness {
	t.Helper()
	h, err := NewHarness(size)
	require.NoError(t, err)

	rt := compaction.NewResultType("records",
		compaction.ProjectionFunc[fullRecord, compactRecord](func(f fullRecord) compactRecord {
			return compactRecord{Name: f.Name, ItemCount: len(f.Items)}
		}),
		func(f fullRecord) string { return f.Name },
		func(c compactRecord) string { return c.Name })
	require.NoError(t, Register(h, rt))
	return h
}

func TestHarness_ValidPayloads(t *testing.T) {
	h := newTestHarness(t, 0)

	full := fullRecord{Name: "a", Items: []item{{ID: 1}, {ID: 2, Note: "x"}}, Tags: map[string]int{"k": 1}}
	assert.NoError(t, h.Validate("records", compaction.RepresentationFull, full))
	assert.NoError(t, h.Validate("records", compaction.RepresentationFull, fullRecord{}))
	assert.NoError(t, h.Validate("records", compaction.RepresentationCompact, compactRecord{Name: "a", ItemCount: 2}))
	assert.NoError(t, h.Validate("records", compaction.RepresentationCompact, compactRecord{}))
}

func TestHarness_ShapesAreClosed(t *testing.T) {
	h := newTestHarness(t, 0)

	err := h.Validate("records", compaction.RepresentationFull, compactRecord{Name: "a", ItemCount: 1})
	require.Error(t, err)

	var v *SchemaViolation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "records", v.ResultType)
	assert.Equal(t, compaction.RepresentationFull, v.Representation)
	assert.Equal(t, "", v.Path)
	assert.Contains(t, v.Message, "item_count")
	assert.True(t, IsViolation(err))
	assert.Contains(t, err.Error(), "(full)")
	assert.Contains(t, err.Error(), "(root)")

	err = h.Validate("records", compaction.RepresentationCompact, fullRecord{Name: "a", Items: []item{{ID: 1}}})
	require.ErrorAs(t, err, &v)
	assert.Equal(t, compaction.RepresentationCompact, v.Representation)
}

func TestHarness_FirstFailingPath(t *testing.T) {
	h := newTestHarness(t, 0)

	tests := []struct {
		name     string
		payload  any
		wantPath string
		wantMsg  string
	}{
		{
			name:     "nested wrong type",
			payload:  map[string]any{"name": "a", "items": []any{map[string]any{"id": 1}, map[string]any{"id": "two"}}},
			wantPath: "/items/1/id",
			wantMsg:  "integer",
		},
		{
			name:     "missing required",
			payload:  map[string]any{"items": []any{}},
			wantPath: "",
			wantMsg:  "name",
		},
		{
			name:     "root sorts before nested",
			payload:  map[string]any{"items": []any{map[string]any{"id": "x"}}},
			wantPath: "",
			wantMsg:  "name",
		},
		{
			name:     "map value type",
			payload:  map[string]any{"name": "a", "tags": map[string]any{"k": "v"}},
			wantPath: "/tags/k",
			wantMsg:  "integer",
		},
		{
			name:     "null payload",
			payload:  nil,
			wantPath: "",
			wantMsg:  "object",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Validate("records", compaction.RepresentationFull, tt.payload)
			var v *SchemaViolation
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.wantPath, v.Path)
			assert.Contains(t, v.Message, tt.wantMsg)
		})
	}
}

func TestHarness_UnserializablePayload(t *testing.T) {
	h := newTestHarness(t, 0)
	err := h.Validate("records", compaction.RepresentationCompact, make(chan int))
	assert.True(t, IsViolation(err))
}

func TestHarness_UnknownResultType(t *testing.T) {
	h := newTestHarness(t, 0)
	err := h.Validate("nope", compaction.RepresentationFull, fullRecord{})
	assert.ErrorIs(t, err, ErrUnknownResultType)
	assert.False(t, IsViolation(err))
}

func TestHarness_UnknownRepresentation(t *testing.T) {
	h := newTestHarness(t, 0)
	err := h.Validate("records", compaction.Representation("partial"), fullRecord{})
	assert.True(t, IsViolation(err))
}

func TestHarness_RecompilesAfterEviction(t *testing.T) {
	// A cache of one cannot hold both shapes at once.
	h := newTestHarness(t, 1)
	for range 3 {
		assert.NoError(t, h.Validate("records", compaction.RepresentationFull, fullRecord{Name: "a"}))
		assert.NoError(t, h.Validate("records", compaction.RepresentationCompact, compactRecord{Name: "a"}))
	}
	assert.Equal(t, 1, h.compiled.Len())
}

func TestHarness_ConcurrentValidate(t *testing.T) {
	h := newTestHarness(t, 0)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				errs <- h.Validate("records", compaction.RepresentationFull, fullRecord{Name: "a", Items: []item{{ID: i}}})
			} else {
				errs <- h.Validate("records", compaction.RepresentationCompact, compactRecord{Name: "a", ItemCount: i})
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestHarness_Document(t *testing.T) {
	h := newTestHarness(t, 0)
	doc, err := h.Document(reflect.TypeFor[compactRecord]())
	require.NoError(t, err)

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.NotContains(t, doc, "$id")
	assert.ElementsMatch(t, []any{"name", "item_count"}, doc["required"])
}

func TestHarness_OutputSchema(t *testing.T) {
	h := newTestHarness(t, 0)
	doc, err := h.OutputSchema("records")
	require.NoError(t, err)

	assert.Equal(t, "object", doc["type"])
	branches, ok := doc["anyOf"].([]any)
	require.True(t, ok)
	require.Len(t, branches, 2)
	full := branches[0].(map[string]any)
	compact := branches[1].(map[string]any)
	assert.Equal(t, "full", full["title"])
	assert.Equal(t, "compact", compact["title"])
	assert.NotContains(t, full, "$schema")
	assert.Contains(t, compact["properties"], "item_count")

	_, err = h.OutputSchema("nope")
	assert.ErrorIs(t, err, ErrUnknownResultType)
}

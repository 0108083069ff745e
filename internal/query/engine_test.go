package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDoc(t *testing.T, s string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("bad", ".items[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid jq expression")

	_, err = Compile("undefined", "nosuchfunc(1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile")
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("broken", "[") })
}

func TestFirst(t *testing.T) {
	p := MustCompile("name", ".name")
	v, ok, err := p.First(decodeDoc(t, `{"name": "John", "age": 30}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "John", v)
}

func TestFirst_NoValue(t *testing.T) {
	p := MustCompile("error", `.error | select(. != null)`)
	_, ok, err := p.First(decodeDoc(t, `{"vulnerabilities": {}}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFirst_RuntimeErrorHint(t *testing.T) {
	p := MustCompile("issues", `[.Issues[] | .Text]`)
	_, _, err := p.First(decodeDoc(t, `{"Issues": 5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issues: ")
	assert.Contains(t, err.Error(), "cannot iterate")

	_, _, err = p.First(decodeDoc(t, `{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(the report is missing an expected list)")
}

func TestFirst_Halt(t *testing.T) {
	p := MustCompile("halt", `halt_error`)
	_, _, err := p.First("stop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "halt: query halted with: stop")
}

func TestDecode(t *testing.T) {
	type item struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	p := MustCompile("items", `[.items[] | {name: .n, count: (.c // 0)}]`)

	var got []item
	require.NoError(t, Decode(p, decodeDoc(t, `{"items": [{"n": "a", "c": 2}, {"n": "b"}]}`), &got))
	assert.Equal(t, []item{{Name: "a", Count: 2}, {Name: "b"}}, got)
}

func TestDecode_NoResult(t *testing.T) {
	p := MustCompile("empty", `empty`)
	var got []string
	err := Decode(p, decodeDoc(t, `{}`), &got)
	assert.True(t, errors.Is(err, ErrNoResult))
}

func TestDecode_TypeMismatch(t *testing.T) {
	p := MustCompile("count", `.count`)
	var got []string
	err := Decode(p, decodeDoc(t, `{"count": 3}`), &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count: ")
}

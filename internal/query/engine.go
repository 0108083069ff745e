// Package query runs jq programs over decoded CLI JSON reports.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// ErrNoResult is returned when a program produces no value for a document.
var ErrNoResult = errors.New("query produced no result")

// Program is a compiled jq expression. It is safe for concurrent use.
type Program struct {
	name string
	code *gojq.Code
}

// Compile parses and compiles expr. name labels runtime errors.
func Compile(name, expr string) (*Program, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return &Program{name: name, code: code}, nil
}

// MustCompile is Compile for package-level programs. It panics on error.
func MustCompile(name, expr string) *Program {
	p, err := Compile(name, expr)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	return p
}

// First runs the program on doc and returns its first value. ok is false
// when the program emits nothing, e.g. after select filtered everything.
func (p *Program) First(doc any) (v any, ok bool, err error) {
	v, ok = p.code.Run(doc).Next()
	if !ok {
		return nil, false, nil
	}
	if e, isErr := v.(error); isErr {
		return nil, false, errors.New(formatJQError(p.name, e))
	}
	return v, true, nil
}

// Decode runs the program on doc and decodes its first value into out.
func Decode[T any](p *Program, doc any, out *T) error {
	v, ok, err := p.First(doc)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", p.name, ErrNoResult)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	return nil
}

// formatJQError adds a hint to the common runtime errors a changed CLI
// report layout produces. gojq runtime errors are untyped, so this matches
// on text; it only decorates messages.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()

	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the report is missing an expected list)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object)"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected object but got array)"
	}

	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}

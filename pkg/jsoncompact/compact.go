// Package jsoncompact trims JSON documents into bounded previews. Long arrays
// keep their first items and long strings keep their first runes; key order
// is preserved so previews of the same value are byte-identical.
package jsoncompact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Options controls trimming.
type Options struct {
	MaxArrayItems int // Keep the first N items of each array (0 = no limit)
	MaxStringLen  int // Keep the first N runes of each string (0 = no limit)
	MaxDepth      int // Replace containers nested deeper than N (0 = unlimited)
}

// Default values for trimming options.
const (
	DefaultMaxArrayItems = 3
	DefaultMaxStringLen  = 200
	DefaultMaxDepth      = 0 // unlimited
)

// MaxDepthMarker replaces containers below MaxDepth.
const MaxDepthMarker = "[max depth]"

// DefaultOptions returns the default trimming settings.
func DefaultOptions() *Options {
	return &Options{
		MaxArrayItems: DefaultMaxArrayItems,
		MaxStringLen:  DefaultMaxStringLen,
		MaxDepth:      DefaultMaxDepth,
	}
}

// Compact trims a JSON document. Empty input is returned unchanged.
// If opts is nil, DefaultOptions() is used.
func Compact(data []byte, opts *Options) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	var buf bytes.Buffer
	buf.Grow(min(len(data), 4096))
	writeValue(&buf, gjson.ParseBytes(data), opts, 0)
	return buf.Bytes(), nil
}

// Preview serializes v and trims the result.
func Preview(v any, opts *Options) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling preview: %w", err)
	}
	out, err := Compact(data, opts)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func writeValue(buf *bytes.Buffer, r gjson.Result, opts *Options, depth int) {
	switch {
	case r.IsObject():
		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			writeString(buf, MaxDepthMarker)
			return
		}
		writeObject(buf, r, opts, depth)
	case r.IsArray():
		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			writeString(buf, MaxDepthMarker)
			return
		}
		writeArray(buf, r, opts, depth)
	case r.Type == gjson.String:
		if s, ok := truncate(r.Str, opts.MaxStringLen); ok {
			writeString(buf, s)
			return
		}
		buf.WriteString(r.Raw)
	default:
		buf.WriteString(r.Raw)
	}
}

func writeObject(buf *bytes.Buffer, r gjson.Result, opts *Options, depth int) {
	buf.WriteByte('{')
	first := true
	r.ForEach(func(key, value gjson.Result) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(key.Raw)
		buf.WriteByte(':')
		writeValue(buf, value, opts, depth+1)
		return true
	})
	buf.WriteByte('}')
}

func writeArray(buf *bytes.Buffer, r gjson.Result, opts *Options, depth int) {
	buf.WriteByte('[')
	n := 0
	r.ForEach(func(_, value gjson.Result) bool {
		if opts.MaxArrayItems > 0 && n >= opts.MaxArrayItems {
			n++
			return true
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		writeValue(buf, value, opts, depth+1)
		n++
		return true
	})
	if opts.MaxArrayItems > 0 && n > opts.MaxArrayItems {
		buf.WriteByte(',')
		writeString(buf, fmt.Sprintf("... (%d more items)", n-opts.MaxArrayItems))
	}
	buf.WriteByte(']')
}

// truncate cuts s after limit runes. It reports false when s already fits.
func truncate(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	i, runes := 0, 0
	for runes < limit {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		runes++
	}
	remaining := utf8.RuneCountInString(s[i:])
	return s[:i] + fmt.Sprintf("... (%d more chars)", remaining), true
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
}

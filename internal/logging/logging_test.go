package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "json", nil)).Info("hello", "tool", "lint")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "lint", rec["tool"])

	buf.Reset()
	slog.New(NewHandler(&buf, "text", nil)).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestSetup_File(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "server.log")
	cfg := DefaultConfig()
	cfg.FilePath = path
	cfg.Format = "json"
	cfg.Level = "debug"

	cleanup, err := Setup(cfg)
	require.NoError(t, err)
	slog.Debug("written", "invocation_id", "abc")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"invocation_id":"abc"`)
}

func TestContextLogger(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, "text", nil)).With("tool", "git_status")
	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("called")
	assert.Contains(t, buf.String(), "tool=git_status")
}

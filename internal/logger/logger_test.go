package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeWithWriter(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("info", "json", &buf)
	t.Cleanup(func() { Initialize("info", "text") })

	Debug("hidden")
	WithService("review").Info("visible", "flag", "f1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "review", entry["service"])
	assert.Equal(t, "f1", entry["flag"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestExternalServiceResult(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("debug", "text", &buf)
	t.Cleanup(func() { Initialize("info", "text") })

	ExternalServiceResult("onebot-http", "set_group_add_request", nil)
	assert.Contains(t, buf.String(), "External service call succeeded")

	buf.Reset()
	ExternalServiceResult("onebot-http", "set_group_add_request", errors.New("refused"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "refused")
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("warn", "text", &buf)
	t.Cleanup(func() { Initialize("info", "text") })

	ctx := context.Background()
	DebugContext(ctx, "debug hidden")
	InfoContext(ctx, "info hidden")
	WarnContext(ctx, "bad signature", "remote_addr", "10.0.0.1")
	ErrorContext(ctx, "probe failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "remote_addr=10.0.0.1")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "probe failed")
}

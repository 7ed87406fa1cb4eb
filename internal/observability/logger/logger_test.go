package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	obscontext "github.com/smallbiznis/hirehub/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildWritesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := build(Config{Environment: "test", Version: "1.2.3", Level: "debug"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Debug("hello")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "hirehub", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "1.2.3", entry["version"])
}

func TestBuildRejectsUnknownLevel(t *testing.T) {
	_, err := build(Config{Level: "chatty"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestWithContextAddsCorrelationIDs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithOrderID(ctx, "plan-42")
	WithContext(ctx, base).Info("x")
	WithContext(context.Background(), base).Info("y")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]any{"request_id": "req-1", "order_id": "plan-42"}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())
}

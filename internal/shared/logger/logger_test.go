package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"agency-cms/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerInterface_Contract(t *testing.T) {
	var _ Logger = NewLogger()
	var _ Logger = NewLoggerWithConfig("info", "json")
	var _ Logger = NewZapLogger("debug", "json")
}

func TestLogrusLogger_WithContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, "debug")

	ctx := context.WithValue(context.Background(), contextkeys.VisitorIDKey, "visitor-1")
	ctx = context.WithValue(ctx, contextkeys.RequestIDKey, "req-9")
	log.WithContext(ctx).WithComponent("tracking").Info("report stored")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "report stored", entry["msg"])
	assert.Equal(t, "visitor-1", entry["visitor_id"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, "tracking", entry["component"])
}

func TestLogrusLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, "warn")
	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warnf("shown %d", 1)
	assert.Contains(t, buf.String(), "shown 1")
}

func TestZapLogger_WithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLoggerFrom(zap.New(core))

	log.WithFields(map[string]interface{}{"endpoint": "/api/track/storage"}).WithComponent("reporter").Warnf("send failed: %s", "timeout")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "send failed: timeout", entry.Message)
	assert.Equal(t, "/api/track/storage", entry.ContextMap()["endpoint"])
	assert.Equal(t, "reporter", entry.ContextMap()["component"])
}

func TestContextFields_NilContext(t *testing.T) {
	//nolint:staticcheck
	assert.Empty(t, contextFields(nil))
}

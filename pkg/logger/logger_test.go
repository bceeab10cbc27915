package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_WritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	SetLogLevel("info")

	l := NewLogger("unit", WithDir(dir), WithConsole(&console))
	l.Info("hello", zap.String("k", "v"))
	l.Debug("hidden")
	_ = l.Sync()

	assert.Contains(t, console.String(), "hello")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(filepath.Join(dir, "unit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"unit"`)
}

func TestSetLogLevel(t *testing.T) {
	SetLogLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, Level())

	SetLogLevel("not-a-level")
	assert.Equal(t, zapcore.DebugLevel, Level())

	SetLogLevel("info")
	assert.Equal(t, zapcore.InfoLevel, Level())
}

func TestNewLoggerWithTrace(t *testing.T) {
	InitTrace("circ-supply", "test")
	ctx, span := StartSpan(context.Background(), "test", "op")
	defer span.End()

	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&buf), zapcore.InfoLevel)
	NewLoggerWithTrace(ctx, zap.New(core)).Info("traced")
	assert.Contains(t, buf.String(), span.SpanContext().TraceID().String())

	buf.Reset()
	NewLoggerWithTrace(context.Background(), zap.New(core)).Info("plain")
	assert.NotContains(t, buf.String(), "trace_id")
}

package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelDebug, Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewCLILogger(t *testing.T) {
	l, err := NewCLILogger(LevelWarn)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	l.Fatal("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.WithContext(context.Background()))
	assert.Equal(t, l, l.WithError(errors.New("err")))
	assert.Equal(t, l, l.Named("x"))
	assert.NoError(t, l.Sync())
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Debug("parsed report", Int("entries", 3), Float64("frequency_mhz", 400), Bool("has_delta", true))
	l.Info("analysis done", AnalysisID("a-1"), Duration("took", time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"entries":3`)
	assert.Contains(t, out, `"frequency_mhz":400`)
	assert.Contains(t, out, `"has_delta":true`)
	assert.Contains(t, out, `"analysis_id":"a-1"`)
}

func TestZapLogger_WithError(t *testing.T) {
	l, buf := newTestLogger(t)
	l.WithError(errors.New("cache down")).Warn("cache lookup failed")
	assert.Contains(t, buf.String(), `"error":"cache down"`)
}

func TestZapLogger_WithContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core)

	ctx := ContextWithRequestID(context.Background(), "req-7")
	l.WithContext(ctx).Info("handled")
	l.WithContext(context.Background()).Info("no id")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	_, ok := entries[1].ContextMap()["request_id"]
	assert.False(t, ok)
}

func TestZapLogger_Named(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewLoggerFromCore(core).Named("nmr").Named("http").Info("x")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "nmr.http", logs.All()[0].LoggerName)
}

func TestErr_Nil(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestDefault_SetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l := NewNopLogger()
	SetDefault(nil)
	assert.Equal(t, orig, Default())
	SetDefault(l)
	assert.Equal(t, l, Default())
}

func TestRequestIDFromContext_Nil(t *testing.T) {
	//nolint:staticcheck
	assert.Equal(t, "", RequestIDFromContext(nil))
}

//Personal.AI order the ending

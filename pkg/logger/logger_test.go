package logger

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{Logger: zap.New(core)}, logs
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestWithCompletion(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)

	log.WithThread("t-1").WithCompletion("openai", "").Info("completion finished")

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", ctx["thread_id"])
	assert.Equal(t, "openai", ctx["provider"])
	assert.NotContains(t, ctx, "model")
}

func TestWatermillAdapter(t *testing.T) {
	log, logs := observed(zapcore.DebugLevel)
	adapter := log.Watermill().With(watermill.LogFields{"topic": "conversation.events"})

	adapter.Info("subscribed", nil)
	adapter.Error("publish failed", errors.New("closed"), watermill.LogFields{"message_uuid": "m-1"})

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level, "info is demoted")
	assert.Equal(t, "events", entries[0].LoggerName)
	assert.Equal(t, "conversation.events", entries[0].ContextMap()["topic"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "m-1", entries[1].ContextMap()["message_uuid"])
	assert.Equal(t, "closed", entries[1].ContextMap()["error"])
}

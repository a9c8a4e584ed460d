package log

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFieldsAndLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core), LevelInfo)

	l.Debug("hidden")
	child := l.With(String("component", "wall"))
	child.Info("placed", Int("bricks", 6), Error(errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "placed", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "wall", ctx["component"])
	assert.EqualValues(t, 6, ctx["bricks"])
	assert.Equal(t, "boom", ctx["error"])

	// level is shared with derived loggers
	l.SetLevel(LevelDebug)
	child.Debug("visible")
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, LevelDebug, child.GetLevel())
}

func TestWithContextAddsSession(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := FromZap(zap.New(core), LevelInfo)

	l.WithContext(ContextWithSession(context.Background(), "s-1")).Info("started")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "s-1", logs.All()[0].ContextMap()["session"])
}

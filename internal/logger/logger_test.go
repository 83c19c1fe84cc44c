package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	Info("composed", Fields{"tracks": 3})
	Warn("fallback", Fields{"model": "remote"})
	Debug("detail", nil)
	Error("codec failed", errors.New("tempo must be positive"), Fields{"request_id": "abc"})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, "composed", entries[0].Message)
	assert.EqualValues(t, 3, entries[0].ContextMap()["tracks"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "remote", entries[1].ContextMap()["model"])
	assert.Equal(t, zap.DebugLevel, entries[2].Level)
	assert.Equal(t, "tempo must be positive", entries[3].ContextMap()["error"])
}

func TestInit(t *testing.T) {
	require.NoError(t, Init("development", "debug"))
	require.NoError(t, Init("production", "not-a-level"))
	SetLogger(zap.NewNop())
}

func TestToZapSortedKeys(t *testing.T) {
	fields := toZap(Fields{"b": 1, "a": 2})
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Key)
	assert.Nil(t, toZap(nil))
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	original := Logger
	t.Cleanup(func() { Logger = original })

	require.NoError(t, Init("debug"))
	assert.True(t, Logger.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("warn"))
	assert.False(t, Logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Logger.Core().Enabled(zapcore.WarnLevel))
}

func TestInit_InvalidLevel(t *testing.T) {
	err := Init("loud")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

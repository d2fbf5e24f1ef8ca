package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("production defaults to info", func(t *testing.T) {
		logger, err := New("production", "")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("development defaults to debug", func(t *testing.T) {
		logger, err := New("development", "")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("explicit level", func(t *testing.T) {
		logger, err := New("production", "warn")
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := New("production", "loud")
		require.Error(t, err)
	})
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationID(ctx))
	assert.Equal(t, "cid-1", CorrelationID(WithCorrelationID(ctx, "cid-1")))
}

package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_EmitsFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := NewLoggerFromCore(core)

	logger.Info("status changed",
		String("appeal_id", "abc"),
		Int("attempt", 2),
		Bool("retried", true),
		Duration("elapsed", 30*time.Millisecond),
		Err(errors.New("boom")),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "status changed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc", fields["appeal_id"])
	assert.Equal(t, int64(2), fields["attempt"])
	assert.Equal(t, true, fields["retried"])
	assert.Equal(t, "boom", fields["error"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := NewLoggerFromCore(core).Named("casework").With(String("appeal_id", "abc"))

	logger.Warn("late submission")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "casework", entries[0].LoggerName)
	assert.Equal(t, "abc", entries[0].ContextMap()["appeal_id"])
}

func TestNewLogger_Defaults(t *testing.T) {
	logger, err := NewLogger(Config{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNopLogger_DoesNothing(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored")
	assert.Equal(t, logger, logger.With(String("k", "v")).Named("x"))
}

package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		enabled   zapcore.Level
		disabled  zapcore.Level
		checkDrop bool
	}{
		{
			name:    "development debug",
			config:  Config{Level: "debug", Environment: "development", ServiceName: "analytics"},
			enabled: zapcore.DebugLevel,
		},
		{
			name:      "production warn",
			config:    Config{Level: "warn", Environment: "production", ServiceName: "dashboard"},
			enabled:   zapcore.WarnLevel,
			disabled:  zapcore.InfoLevel,
			checkDrop: true,
		},
		{
			name:      "invalid level defaults to info",
			config:    Config{Level: "loud", ServiceName: "analytics"},
			enabled:   zapcore.InfoLevel,
			disabled:  zapcore.DebugLevel,
			checkDrop: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			require.NoError(t, err)
			assert.True(t, l.zap.Core().Enabled(tt.enabled))
			if tt.checkDrop {
				assert.False(t, l.zap.Core().Enabled(tt.disabled))
			}
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core))

	l.Info("records loaded", zap.Int("count", 42))
	require.Equal(t, 1, observed.Len())
	entry := observed.TakeAll()[0]
	assert.Equal(t, "records loaded", entry.Message)
	assert.Equal(t, int64(42), entry.ContextMap()["count"])

	l.Error("load failed", errors.New("server selection timeout"))
	entry = observed.TakeAll()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "server selection timeout", entry.ContextMap()["error"])

	l.Debug("hidden")
	assert.Equal(t, 0, observed.Len())
}

func TestWithAndNamed(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core))

	l.Named("source").With(zap.String("scenario", "social")).Warn("few records")

	entry := observed.All()[0]
	assert.Equal(t, "source", entry.LoggerName)
	assert.Equal(t, "social", entry.ContextMap()["scenario"])
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Info("ignored")
	assert.NoError(t, l.Sync())
}

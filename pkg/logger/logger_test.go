package logger

import (
	"english_club_backend/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn", "debug"))
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("", "debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense", "release"))
}

func TestInitLoggerTestMode(t *testing.T) {
	InitLogger(&config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Log:    config.LogConfig{Level: "error", File: "logs/app.log"},
	})
	defer Sync()

	assert.False(t, Log.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, Log.Core().Enabled(zapcore.ErrorLevel))
}

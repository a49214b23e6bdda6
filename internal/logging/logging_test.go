package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_DefaultLevelIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, NoColor: true})

	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "WARN")
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Debug: true, NoColor: true})

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	logger.Debug("request", zap.String("path", "/bots/list/"))
	_ = logger.Sync()

	assert.Contains(t, buf.String(), "/bots/list/")
}

func TestToken_Redacts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	logger.Info("auth", Token("access_token", "secret-value"), Token("refresh_token", ""))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "[REDACTED]", fields["access_token"])
		assert.Equal(t, "(empty)", fields["refresh_token"])
	}
}

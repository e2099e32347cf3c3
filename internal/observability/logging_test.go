package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/pet-adoption/internal/config"
)

func TestNewLogger_Levels(t *testing.T) {
	app := config.AppConfig{Name: "pet-adoption-service", Version: "dev", Env: "development"}

	logger, err := NewLogger(config.LoggerConfig{Level: "DEBUG"}, app)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "verbose"}, app)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNewLogger_Production(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "warn"}, config.AppConfig{Name: "svc", Env: "Production"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

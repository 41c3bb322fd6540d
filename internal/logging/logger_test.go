package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotelpos/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewLogger(t *testing.T) {
	appCfg := config.AppConfig{
		Name:        "hotelpos-test",
		Environment: "test",
		Version:     "1.0.0",
	}

	t.Run("DefaultStdout", func(t *testing.T) {
		logger, closer, err := New(config.LoggingConfig{}, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("Stderr", func(t *testing.T) {
		logger, closer, err := New(config.LoggingConfig{Level: "debug", Output: "stderr"}, appCfg)
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	})

	t.Run("Console", func(t *testing.T) {
		logger, closer, err := New(config.LoggingConfig{Level: "warn", Format: "console"}, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
	})

	t.Run("File", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "hotel.log")
		logger, closer, err := New(config.LoggingConfig{Level: "error", Output: "file", FilePath: logPath}, appCfg)
		require.NoError(t, err)
		require.NotNil(t, closer)
		logger.Error().Msg("boom")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"app":"hotelpos-test"`)
		assert.Contains(t, string(data), "boom")
	})

	t.Run("FileMissingPath", func(t *testing.T) {
		_, _, err := New(config.LoggingConfig{Output: "file"}, appCfg)
		assert.Error(t, err)
	})

	t.Run("UnknownOutput", func(t *testing.T) {
		_, _, err := New(config.LoggingConfig{Output: "syslog"}, appCfg)
		assert.Error(t, err)
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		logger, _, err := New(config.LoggingConfig{Level: "invalid"}, appCfg)
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	l := Component(&base, "billing")
	l.Info().Msg("hi")
	assert.Contains(t, buf.String(), `"component":"billing"`)

	nop := Component(nil, "x")
	nop.Info().Msg("dropped")
}

func TestGormLogger(t *testing.T) {
	var buf bytes.Buffer
	gl := NewGormLogger(zerolog.New(&buf), false)
	ctx := context.Background()

	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Empty(t, buf.String(), "fast successful queries are not logged at warn level")

	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT broken", 0 }, errors.New("syntax"))
	assert.Contains(t, buf.String(), "query failed")
	assert.Contains(t, buf.String(), "SELECT broken")

	buf.Reset()
	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 2", 0 }, errors.New("x"))
	silent.Error(ctx, "nope %d", 1)
	assert.Empty(t, buf.String())

	verbose := NewGormLogger(zerolog.New(&buf).Level(zerolog.DebugLevel), true)
	verbose.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 3", 2 }, nil)
	assert.Contains(t, buf.String(), "SELECT 3")
}

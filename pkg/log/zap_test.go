package log

import (
	"path/filepath"
	"testing"

	"SignalGate/internal/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZapLogger_NilConfig(t *testing.T) {
	logger, err := NewZapLogger(nil)
	assert.Error(t, err)
	assert.Nil(t, logger)
}

func TestNewZapLogger_InvalidLevel(t *testing.T) {
	logger, err := NewZapLogger(&conf.Log{Level: "verbose", Format: "json"})
	assert.Error(t, err)
	assert.Nil(t, logger)
}

func TestNewZapLogger_ValidConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  *conf.Log
	}{
		{"json production", &conf.Log{Level: "info", Format: "json", Env: "production"}},
		{"console development", &conf.Log{Level: "debug", Format: "console", Env: "development"}},
		{"warn level", &conf.Log{Level: "warn", Format: "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewZapLogger(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)
			logger.Info("logger smoke check")
		})
	}
}

func TestNewZapLogger_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewZapLogger(&conf.Log{
		Level:      "info",
		Format:     "json",
		Env:        "production",
		OutputFile: logFile,
	})
	require.NoError(t, err)

	logger.Info("file output check")
	require.NoError(t, logger.Sync())

	assert.FileExists(t, logFile)
}

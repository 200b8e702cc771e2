package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewSugaredLogger(t *testing.T) {
	tests := []struct {
		name          string
		loggingConfig string
		expectedLevel zapcore.Level
		expectError   bool
	}{
		{
			name: "info level json encoding",
			loggingConfig: `
logging:
  level: info
  development: false
  encoding: json
`,
			expectedLevel: zapcore.InfoLevel,
		},
		{
			name: "debug level console encoding",
			loggingConfig: `
logging:
  level: debug
  development: true
  encoding: console
`,
			expectedLevel: zapcore.DebugLevel,
		},
		{
			name: "invalid level",
			loggingConfig: `
logging:
  level: invalid
`,
			expectError: true,
		},
		{
			name: "stdout is rejected",
			loggingConfig: `
logging:
  level: info
  outputPaths:
    - stdout
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := config.NewYAML(config.Source(strings.NewReader(tt.loggingConfig)))
			require.NoError(t, err)

			logger, err := NewSugaredLogger(provider)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}

			require.NoError(t, err)
			assert.True(t, logger.Desugar().Core().Enabled(tt.expectedLevel))
			if tt.expectedLevel > zapcore.DebugLevel {
				assert.False(t, logger.Desugar().Core().Enabled(tt.expectedLevel-1))
			}
		})
	}
}

func TestNewSugaredLoggerOutputPaths(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "tlsp.log")
	provider, err := config.NewStaticProvider(map[string]interface{}{
		"logging": map[string]interface{}{
			"level":       "info",
			"outputPaths": []string{logFile},
		},
	})
	require.NoError(t, err)

	logger, err := NewSugaredLogger(provider)
	require.NoError(t, err)
	logger.Infow("session started", "key", "/proj")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session started")
}

func TestNewLogger(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	assert.NotNil(t, NewLogger(sugar))
}

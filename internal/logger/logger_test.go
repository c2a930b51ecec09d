package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewCLILogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		debug    bool
		enabled  []zapcore.Level
		disabled []zapcore.Level
	}{
		{
			name:     "quiet by default",
			enabled:  []zapcore.Level{zapcore.ErrorLevel},
			disabled: []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel},
		},
		{
			name:    "debug shows everything",
			debug:   true,
			enabled: []zapcore.Level{zapcore.DebugLevel, zapcore.WarnLevel, zapcore.ErrorLevel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log, err := NewCLILogger(tt.debug)
			if err != nil {
				t.Fatalf("NewCLILogger() error = %v", err)
			}
			for _, lvl := range tt.enabled {
				if !log.Core().Enabled(lvl) {
					t.Errorf("level %s disabled", lvl)
				}
			}
			for _, lvl := range tt.disabled {
				if log.Core().Enabled(lvl) {
					t.Errorf("level %s enabled", lvl)
				}
			}
		})
	}
}

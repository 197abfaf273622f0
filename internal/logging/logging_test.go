package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level, format string
		want          zapcore.Level
	}{
		{"debug", "console", zapcore.DebugLevel},
		{"info", "", zapcore.InfoLevel},
		{"warn", "json", zapcore.WarnLevel},
		{"error", "json", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			t.Parallel()
			logger, err := New(tt.level, tt.format)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !logger.Core().Enabled(tt.want) {
				t.Errorf("level %s not enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && logger.Core().Enabled(tt.want-1) {
				t.Errorf("level %s unexpectedly enabled", tt.want-1)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()
	if _, err := New("loud", "console"); err == nil {
		t.Error("New with bad level succeeded, want error")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Error("New with bad format succeeded, want error")
	}
}

package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		level, env string
		want       zapcore.Level
		wantErr    bool
	}{
		{"", "production", zapcore.InfoLevel, false},
		{"debug", "development", zapcore.DebugLevel, false},
		{"WARN", "", zapcore.WarnLevel, false},
		{"loud", "production", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.level+"/"+tc.env, func(t *testing.T) {
			log, err := New(tc.level, tc.env)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !log.Core().Enabled(tc.want) {
				t.Errorf("level %v should be enabled", tc.want)
			}
			if tc.want > zapcore.DebugLevel && log.Core().Enabled(tc.want-1) {
				t.Errorf("level %v should be disabled", tc.want-1)
			}
		})
	}
}

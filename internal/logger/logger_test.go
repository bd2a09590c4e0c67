package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestLevelFromEnv(t *testing.T) {
	cases := []struct {
		value string
		dev   bool
		want  zerolog.Level
	}{
		{value: "", dev: true, want: zerolog.DebugLevel},
		{value: "", dev: false, want: zerolog.InfoLevel},
		{value: "warn", dev: true, want: zerolog.WarnLevel},
		{value: " ERROR ", dev: false, want: zerolog.ErrorLevel},
		{value: "nonsense", dev: false, want: zerolog.InfoLevel},
	}

	for _, tc := range cases {
		if got := levelFromEnv(tc.value, tc.dev); got != tc.want {
			t.Errorf("levelFromEnv(%q, %t) = %s, want %s", tc.value, tc.dev, got, tc.want)
		}
	}
}

func TestNewUsesSeverityField(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "info")
	_ = New()
	if zerolog.LevelFieldName != "severity" {
		t.Fatalf("expected level field name severity, got %q", zerolog.LevelFieldName)
	}
}

package logging

import (
	"log/slog"
	"testing"

	"github.com/mfshiu/wastepro/engine/config"
)

func TestLevelFromName(t *testing.T) {
	cases := map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"WARNING": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for name, want := range cases {
		if got := levelFromName(name); got != want {
			t.Errorf("levelFromName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestNewDefaultsLoggerName(t *testing.T) {
	log, err := New(config.LoggingConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log == nil {
		t.Fatal("expected a non-nil logger")
	}
}

// Package logging sets up the process-wide slog JSON handler, matching the
// teacher's cmd/api/main.go `slog.New(slog.NewJSONHandler(...))` bootstrap,
// generalized to honor spec §6's [logging] TOML table (name, path, level).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mfshiu/wastepro/engine/config"
)

// levelFromName maps spec's {VERBOSE,DEBUG,INFO,WARNING,ERROR} onto slog's
// levels; VERBOSE has no slog equivalent so it maps to Debug-4, still
// ordered below Debug.
func levelFromName(name string) slog.Level {
	switch strings.ToUpper(name) {
	case "VERBOSE":
		return slog.LevelDebug - 4
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a JSON-handler slog.Logger per cfg.Logging, writing to
// cfg.Logging.Path if set, else stdout. The returned logger carries
// "logger" = cfg.Logging.Name as a base attribute so multi-agent log
// streams can be told apart, matching LOGGER_NAME's purpose in spec §6.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	var w io.Writer = os.Stdout
	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelFromName(cfg.Level)})
	name := cfg.Name
	if name == "" {
		name = "wastepro"
	}
	return slog.New(handler).With("logger", name), nil
}

// Package logging installs the process-wide slog handler.
//
// Call sites use log/slog directly; this package only decides where records
// go and how they are rendered (charm text for terminals, JSON otherwise).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// ParseLevel maps a verbosity string onto a charm log level.
func ParseLevel(s string) (charmlog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return charmlog.DebugLevel, nil
	case "", "info":
		return charmlog.InfoLevel, nil
	case "warn", "warning":
		return charmlog.WarnLevel, nil
	case "error":
		return charmlog.ErrorLevel, nil
	default:
		return charmlog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds a slog logger backed by charmbracelet/log.
func New(w io.Writer, level string, json bool) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           lvl,
	})
	if json {
		handler.SetFormatter(charmlog.JSONFormatter)
	}
	return slog.New(handler), nil
}

// Setup installs the logger as the slog default.
func Setup(w io.Writer, level string, json bool) error {
	logger, err := New(w, level, json)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

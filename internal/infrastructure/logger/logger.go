package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	global *zerolog.Logger
)

// GetLogger returns the process-wide logger. Before Configure runs it
// falls back to console output at info level so early init code can log.
func GetLogger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		l := build("console").Level(zerolog.InfoLevel)
		global = &l
	}
	return *global
}

// Configure replaces the process-wide logger with one built from the
// configured level and format. Safe to call again on env reload.
func Configure(level, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	format = strings.ToLower(format)
	switch format {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", format)
	}

	mu.Lock()
	defer mu.Unlock()
	zerolog.SetGlobalLevel(lvl)
	l := build(format).Level(lvl)
	global = &l
	return nil
}

func build(format string) zerolog.Logger {
	if format == "json" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

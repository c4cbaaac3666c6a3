// Package logging configures zerolog for Mend and hands out component loggers.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls global logger behavior.
type Options struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Format is the output format (json, console).
	Format string

	// File is an optional log file path; empty logs to stderr.
	File string

	// NoColor disables color in console format.
	NoColor bool
}

var (
	mu   sync.RWMutex
	root = zerolog.New(consoleWriter(os.Stderr, false)).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// Setup initializes the root logger. Safe to call more than once; the last
// call wins.
func Setup(opts Options) error {
	var out io.Writer = os.Stderr
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		out = f
	}

	if strings.EqualFold(opts.Format, "console") || opts.Format == "" {
		out = consoleWriter(out, opts.NoColor)
	}

	level := parseLevel(opts.Level)

	mu.Lock()
	root = zerolog.New(out).With().Timestamp().Logger().Level(level)
	mu.Unlock()
	return nil
}

// Component returns a logger tagged with a component name.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.With().Str("component", name).Logger()
}

func consoleWriter(out io.Writer, noColor bool) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "", "info":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

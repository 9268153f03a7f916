// Package logging configures zerolog for the ingest pipeline.
//
// Level conventions across the pipeline:
//
//	debug  per-identifier request flow, gate slot wait, backoff decisions
//	info   batch start/completion counts, sink writes, startup/shutdown
//	warn   soft failures (non-200), quarantined records, retry attempts
//	error  hard failures (timeout, transport fault), unreachable quarantine
//	       store, configuration errors
//
// Common context fields: identifier, status, duration, error_class,
// attempted/succeeded/failed, reasons.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel names a minimum severity threshold.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output is the destination writer. Nil means os.Stderr.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration: info level,
// JSON to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it. Every
// component logger created afterwards inherits this configuration.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return log.Logger
}

// parseLevel maps a LogLevel to zerolog's level, defaulting to info
// for anything unrecognized.
func parseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(string(level))
	if name == "warning" {
		name = "warn"
	}
	parsed, err := zerolog.ParseLevel(name)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// NewLogger returns a child of the global logger tagged with the
// component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Package log configures zerolog output and the per-component loggers.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the root logger.
var Logger zerolog.Logger

// Component loggers.
var (
	Submission zerolog.Logger
	RPC        zerolog.Logger
	Pinning    zerolog.Logger
	Wallet     zerolog.Logger
	Web        zerolog.Logger
)

func init() {
	Logger = New(os.Stderr, "info", false)
	initComponents()
}

// Init replaces the root logger and rebuilds the component loggers.
func Init(level string, jsonOutput bool) {
	Logger = New(os.Stderr, level, jsonOutput)
	initComponents()
}

// New builds a logger writing to w. Console output is colored and
// human-oriented; JSON output is one object per line.
func New(w io.Writer, level string, jsonOutput bool) zerolog.Logger {
	if !jsonOutput {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func initComponents() {
	Submission = WithComponent("submission")
	RPC = WithComponent("rpc")
	Pinning = WithComponent("pinning")
	Wallet = WithComponent("wallet")
	Web = WithComponent("web")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

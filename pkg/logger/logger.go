// Package logger builds the process-wide zerolog logger.
//
// Call Init once in main; components receive the returned logger explicitly.
// Get serves code outside that wiring, such as the exit path in cmd/passop.
//
//	TRACE (-1) → DEBUG (0) → INFO (1) → WARN (2) → ERROR (3)
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Defaults to "info" when empty or unrecognised.
	Level string
	// Pretty enables coloured console output; false emits JSON lines.
	Pretty bool
	// Service is attached to every entry as the "service" field when set.
	Service string
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	mu       sync.Mutex
	instance *zerolog.Logger
)

// New builds a logger from opts without touching the singleton.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger()
}

// Init builds the singleton logger. Only the first call has any effect.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := New(opts)
		instance = &l
	}
	return *instance
}

// Get returns the singleton logger, or a disabled logger if Init was never called.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		return zerolog.Nop()
	}
	return *instance
}

// Reset drops the singleton so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}

// ParseLevel converts a string to a zerolog.Level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

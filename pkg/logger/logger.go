// Package logger builds the zerolog logger shared by the news-api processes.
//
// cmd/api and cmd/worker each call Init once at startup with their own
// Service name ("api" or "worker"), so entries from both processes can be
// told apart once they land in the same sink. ENV=development switches to
// the coloured console writer; every other environment emits JSON lines.
// Packages below cmd receive the logger as a value; Component derives the
// per-subsystem loggers (auth, news, worker) that internal/app hands out.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options are read from internal/pkg/config at process start.
type Options struct {
	// Level is LOG_LEVEL: trace, debug, info, warn or error. Anything else
	// means info.
	Level string
	// Pretty selects the console writer. cmd sets it from Config.IsDevelopment.
	Pretty bool
	// Output defaults to os.Stdout; tests pass a buffer.
	Output io.Writer
	// Service becomes the "service" field on every entry.
	Service string
}

var (
	mu       sync.Mutex
	instance zerolog.Logger
	ready    bool
)

// Init builds the process logger on the first call and returns it. Later
// calls return the same logger and ignore opts.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if ready {
		return instance
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(out).Level(lvl).With().Timestamp().Caller()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	instance = ctx.Logger()
	ready = true
	return instance
}

// Get returns the logger built by Init. It panics before Init so a missing
// bootstrap step fails loudly instead of logging nowhere.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		panic("logger: Get() called before Init()")
	}
	return instance
}

// Component returns base tagged with a "component" field.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// Reset drops the process logger so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = zerolog.Logger{}
	ready = false
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func parseLevel(s string) zerolog.Level {
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

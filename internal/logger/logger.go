// Package logger builds the slog.Logger used by the command line tools.
//
// Console output goes through tint (colourised text) in development and a
// JSON handler in production. WithLogToFile adds a lumberjack-rotated JSON
// file next to the console output.
//
//	slog.SetDefault(logger.New(env.FromEnv(),
//	    logger.WithLogToFile(true),
//	    logger.WithLogFile("logs/vision.log"),
//	))
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/born-ml/vision/internal/env"
)

// DefaultLogFile is used when file logging is on and no path was given.
const DefaultLogFile = "logs/vision.log"

type options struct {
	level     slog.Leveler
	toFile    bool
	file      string
	console   io.Writer
	maxSizeMB int
	maxAge    int
	backups   int
}

// Option configures New.
type Option func(*options)

// WithLogToFile enables the rotated log file.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.toFile = enabled }
}

// WithLogFile sets the rotated log file path.
func WithLogFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithLevel overrides the environment's default level.
func WithLevel(level slog.Leveler) Option {
	return func(o *options) { o.level = level }
}

// WithOutput redirects console output (stderr by default).
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// New creates a logger for the environment.
func New(e env.Environment, opts ...Option) *slog.Logger {
	o := options{
		level:     slog.LevelDebug,
		file:      DefaultLogFile,
		console:   os.Stderr,
		maxSizeMB: 10,
		maxAge:    28,
		backups:   3,
	}
	if e.IsProduction() {
		o.level = slog.LevelInfo
	}
	for _, opt := range opts {
		opt(&o)
	}

	var console slog.Handler
	if e.IsProduction() {
		console = slog.NewJSONHandler(o.console, &slog.HandlerOptions{Level: o.level})
	} else {
		console = tint.NewHandler(o.console, &tint.Options{
			Level:      o.level,
			TimeFormat: time.Kitchen,
			NoColor:    o.console != os.Stderr && o.console != os.Stdout,
		})
	}

	if !o.toFile {
		return slog.New(console)
	}

	file := slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   o.file,
		MaxSize:    o.maxSizeMB,
		MaxAge:     o.maxAge,
		MaxBackups: o.backups,
	}, &slog.HandlerOptions{Level: o.level, AddSource: true})

	return slog.New(fanout{console, file})
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, errors.New("unknown log level " + s)
	}
	return level, nil
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

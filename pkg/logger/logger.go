// Package logger builds the process-wide slog logger and provides attribute
// helpers so field names stay uniform across packages.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Format selects the output handler.
type Format string

const (
	// FormatText is colored, human-oriented output (tint).
	FormatText Format = "text"
	// FormatJSON is one JSON object per line.
	FormatJSON Format = "json"
)

// Options configures New.
type Options struct {
	Level     string
	Format    Format
	Output    io.Writer
	AddSource bool
	NoColor   bool
}

// DefaultOptions returns info-level text output on stderr.
func DefaultOptions() Options {
	return Options{
		Level:  "info",
		Format: FormatText,
		Output: os.Stderr,
	}
}

// ParseLevel parses a string into a slog.Level. Unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger. JSON output is meant for production, text for development.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := new(slog.LevelVar)
	level.Set(ParseLevel(opts.Level))

	var handler slog.Handler
	switch opts.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     level,
			AddSource: opts.AddSource,
		})
	default:
		handler = tint.NewHandler(out, &tint.Options{
			Level:      level,
			AddSource:  opts.AddSource,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		})
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Field helpers.
func UserID(id string) slog.Attr        { return slog.String("user_id", id) }
func Collection(name string) slog.Attr  { return slog.String("collection", name) }
func Key(key string) slog.Attr          { return slog.String("key", key) }
func ItemID(id string) slog.Attr        { return slog.String("item_id", id) }
func XP(xp int) slog.Attr               { return slog.Int("xp", xp) }
func Subject(subject string) slog.Attr  { return slog.String("subject", subject) }
func Component(name string) slog.Attr   { return slog.String("component", name) }
func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }
func Err(err error) slog.Attr           { return slog.Any("error", err) }

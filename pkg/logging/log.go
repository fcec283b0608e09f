package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"

	FormatText = "text"
	FormatJSON = "json"
	FormatCLI  = "cli"
)

// Formats lists the supported log formats.
var Formats = []string{FormatText, FormatJSON, FormatCLI}

// CLIHandler is a compact, colorized slog.Handler for interactive commands.
type CLIHandler struct {
	writer io.Writer
	level  slog.Level
	prefix string
	attrs  []slog.Attr
}

func NewCLIHandler(w io.Writer, level slog.Level) *CLIHandler {
	return &CLIHandler{
		writer: w,
		level:  level,
	}
}

func (h *CLIHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *CLIHandler) Handle(_ context.Context, r slog.Record) error {
	msg := r.Message
	if h.prefix != "" {
		msg = "[" + h.prefix + "] " + msg
	}

	attrs := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
		return true
	})
	if len(attrs) > 0 {
		msg = msg + ": " + strings.Join(attrs, " ")
	}

	switch {
	case r.Level >= slog.LevelError:
		msg = colorRed + msg + colorReset
	case r.Level >= slog.LevelWarn:
		msg = colorYellow + msg + colorReset
	default:
		msg = colorGreen + msg + colorReset
	}

	_, err := fmt.Fprintln(h.writer, msg)
	return err
}

func (h *CLIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &CLIHandler{
		writer: h.writer,
		level:  h.level,
		prefix: h.prefix,
		attrs:  merged,
	}
}

func (h *CLIHandler) WithGroup(name string) slog.Handler {
	return &CLIHandler{
		writer: h.writer,
		level:  h.level,
		prefix: name,
		attrs:  h.attrs,
	}
}

// NewLogger creates a logger writing to w in the given format.
// Unknown formats fall back to text.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	lev := ParseLogLevel(level)
	opts := &slog.HandlerOptions{Level: lev}

	var h slog.Handler
	switch ParseFormat(format) {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	case FormatCLI:
		h = NewCLIHandler(w, lev)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// SetDefault configures the process-wide logger.
func SetDefault(level, format string) {
	slog.SetDefault(NewLogger(os.Stderr, level, format))
}

// ParseLogLevel converts a string log level to slog.Level.
// Defaults to slog.LevelInfo for unrecognized strings.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat normalizes a log format name, defaulting to text.
func ParseFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	for _, v := range Formats {
		if f == v {
			return v
		}
	}
	return FormatText
}

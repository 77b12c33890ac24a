package logx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler used by [New].
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat maps "json" to [FormatJSON] and anything else to [FormatText].
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// ValidLevel reports whether s names a level ParseLevel understands. The
// empty string is valid and means info.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// New returns a logger writing to w (stderr when nil) with every record
// tagged component=reserve-console.
func New(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if ParseFormat(format) == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("component", "reserve-console")
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// SecureString masks raw for logging, keeping a short prefix and suffix
// when raw is long enough that they do not reveal it.
func SecureString(raw string) string {
	const (
		prefix = 6
		suffix = 4
		hidden = "########"
	)
	if len(raw) < prefix+suffix+8 {
		return hidden
	}
	return raw[:prefix] + hidden + raw[len(raw)-suffix:]
}

// Token returns a slog attribute carrying a masked token.
func Token(key, raw string) slog.Attr {
	return slog.String(key, SecureString(raw))
}

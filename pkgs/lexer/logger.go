package lexer

import (
	"log/slog"
	"os"
)

// newLogger builds the default logger for compiler and tokenizer
// diagnostics. RELEX_DEBUG in the environment raises the level so
// per-rule compilation decisions become visible.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("RELEX_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// newJSONHandler emits one object per record with the keys ts, level, msg
// and, at debug level, src.
func newJSONHandler(out io.Writer, level slog.Leveler, withSource bool) slog.Handler {
	return slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		AddSource:   withSource,
		ReplaceAttr: renameJSONAttr,
	})
}

func renameJSONAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			return slog.String("ts", t.UTC().Format(time.RFC3339))
		}
		return slog.Attr{Key: "ts", Value: a.Value}
	case slog.LevelKey:
		return slog.String("level", strings.ToLower(a.Value.String()))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String("src", fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return a
}

// Package errutil renders oops-coded errors into structured log records.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at the given level. For oops errors the code and the
// attached context are emitted as separate attributes.
func LogError(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, err error) {
	if logger == nil || err == nil {
		return
	}
	attrs := []any{"error", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil && code != "" {
			attrs = append(attrs, "code", code)
		}
		if errCtx := oopsErr.Context(); len(errCtx) > 0 {
			attrs = append(attrs, "context", errCtx)
		}
	}
	logger.Log(ctx, level, msg, attrs...)
}

// Code returns the oops code carried by err, or "" when there is none.
func Code(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}

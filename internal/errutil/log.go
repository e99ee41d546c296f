// Package errutil logs and asserts the coded errors raised by the game and
// store layers.
package errutil

import (
	"log/slog"
	"maps"

	"github.com/samber/oops"
)

// Attribute keys lifted out of an error's context so failure lines share
// keys with the request and lifecycle logs.
var topLevelKeys = []string{"session_id", "operation"}

// LogError logs a failed operation at error level. For coded errors the
// code is logged, session_id and operation become top-level attributes and
// any remaining context is nested under "context".
func LogError(logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, "error", err)
		return
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil && code != "" {
		attrs = append(attrs, "code", code)
	}

	rest := maps.Clone(oopsErr.Context())
	for _, key := range topLevelKeys {
		v, ok := rest[key]
		if !ok {
			continue
		}
		delete(rest, key)
		if v != "" {
			attrs = append(attrs, key, v)
		}
	}
	if len(rest) > 0 {
		attrs = append(attrs, "context", rest)
	}
	logger.Error(msg, attrs...)
}

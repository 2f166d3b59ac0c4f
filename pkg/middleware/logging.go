package middleware

import (
	"context"
	"log/slog"

	"github.com/lumen-dev/lumen/pkg/store"
)

// Logging returns middleware that logs every state change.
// A nil logger falls back to slog.Default().
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, state store.State) error {
		logger.LogAttrs(ctx, slog.LevelDebug, "state changed",
			slog.Int("keys", len(state)),
		)
		return nil
	}
}

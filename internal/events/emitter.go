package events

import (
	"context"
	"log/slog"
)

// Emit publishes a run event. The default emitter drops events; the binary
// installs a logging emitter at startup and tests may substitute their own.
var Emit = func(ctx context.Context, name string, evt RunEvent) {}

// EnableLogEmitter routes all events to the given structured logger.
func EnableLogEmitter(logger *slog.Logger) {
	Emit = func(ctx context.Context, name string, evt RunEvent) {
		if evt.RunKey == "" {
			evt.RunKey = RunFromContext(ctx)
		}
		attrs := []any{
			"event", name,
			"run", evt.RunKey,
			"id", evt.ID,
		}
		for k, v := range evt.Metadata {
			attrs = append(attrs, k, v)
		}
		switch evt.Type {
		case EventError:
			logger.Error(evt.Message, attrs...)
		case EventWarn:
			logger.Warn(evt.Message, attrs...)
		default:
			logger.Info(evt.Message, attrs...)
		}
	}
}

// SetCustomEmitter replaces the emitter, or restores the no-op emitter when
// f is nil.
func SetCustomEmitter(f func(ctx context.Context, name string, evt RunEvent)) {
	if f == nil {
		Emit = func(context.Context, string, RunEvent) {}
		return
	}
	Emit = func(ctx context.Context, name string, evt RunEvent) {
		if evt.RunKey == "" {
			evt.RunKey = RunFromContext(ctx)
		}
		f(ctx, name, evt)
	}
}

package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tagbot/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that log every transition.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "state_enter", "bot", e.Bot, "from", e.From, "to", e.To)
		},
		OnFinish: func(ctx context.Context, e *domain.FinishEvent) {
			logger.DebugContext(ctx, "finish", "bot", e.Bot, "from", e.From, "reason", e.Reason)
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.WarnContext(ctx, "transition_error", "bot", e.Bot, "state", e.State, "err", e.Err)
		},
	}
}

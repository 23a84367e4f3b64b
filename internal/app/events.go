package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// publish reports an action the backend has already confirmed. A publishing
// failure is logged rather than returned so callers see the backend outcome.
func publish(ctx context.Context, pub domain.EventPublisher, logger *zap.Logger, event domain.Event, app domain.Application, actor domain.User) {
	if err := pub.Publish(ctx, event, app, actor); err != nil {
		logger.Warn("publishing application event",
			zap.String("event", string(event)),
			zap.String("application", app.ID),
			zap.Error(err))
	}
}

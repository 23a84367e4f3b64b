package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

var _ domain.EventPublisher = (*TracingPublisher)(nil)

// TracingPublisher wraps a domain.EventPublisher with a span per event and
// counts published actions by event and resulting status.
type TracingPublisher struct {
	next    domain.EventPublisher
	tracer  trace.Tracer
	actions metric.Int64Counter
}

func NewTracingPublisher(next domain.EventPublisher) (*TracingPublisher, error) {
	actions, err := otel.Meter(tracerName).Int64Counter("merchantdesk.application.actions",
		metric.WithDescription("Application actions confirmed by the backend"),
	)
	if err != nil {
		return nil, err
	}
	return &TracingPublisher{
		next:    next,
		tracer:  otel.Tracer(tracerName),
		actions: actions,
	}, nil
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.Event, app domain.Application, actor domain.User) error {
	attrs := []attribute.KeyValue{
		attribute.String("event.type", string(event)),
		attribute.String("application.status", string(app.Status)),
	}
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(attrs...),
		trace.WithAttributes(
			attribute.String("application.id", app.ID),
			attribute.String("actor.role", string(actor.Role)),
		),
	)
	defer span.End()

	p.actions.Add(ctx, 1, metric.WithAttributes(attrs...))

	err := p.next.Publish(ctx, event, app, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

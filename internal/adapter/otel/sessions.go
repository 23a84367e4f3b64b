package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

var _ domain.SessionStore = (*TracingSessionStore)(nil)

// TracingSessionStore wraps a domain.SessionStore with tracing. Session ids
// are bearer secrets and never become span attributes.
type TracingSessionStore struct {
	next   domain.SessionStore
	tracer trace.Tracer
}

func NewTracingSessionStore(next domain.SessionStore) *TracingSessionStore {
	return &TracingSessionStore{next: next, tracer: otel.Tracer(tracerName)}
}

func (s *TracingSessionStore) Save(ctx context.Context, sessionID string, user domain.User) (err error) {
	ctx, span := s.tracer.Start(ctx, "SessionStore.Save",
		trace.WithAttributes(attribute.String("user.role", string(user.Role))),
	)
	defer func() { finish(span, err) }()
	return s.next.Save(ctx, sessionID, user)
}

func (s *TracingSessionStore) Load(ctx context.Context, sessionID string) (user domain.User, err error) {
	ctx, span := s.tracer.Start(ctx, "SessionStore.Load")
	defer func() {
		// A missing session is an ordinary outcome, not a failure.
		if errors.Is(err, domain.ErrSessionNotFound) {
			span.SetAttributes(attribute.Bool("session.found", false))
			span.End()
			return
		}
		span.SetAttributes(attribute.String("user.role", string(user.Role)))
		finish(span, err)
	}()
	return s.next.Load(ctx, sessionID)
}

func (s *TracingSessionStore) Delete(ctx context.Context, sessionID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "SessionStore.Delete")
	defer func() { finish(span, err) }()
	return s.next.Delete(ctx, sessionID)
}

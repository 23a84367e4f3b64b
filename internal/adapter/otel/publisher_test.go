package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"

	adapter "github.com/neomorfeo/merchantdesk/internal/adapter/otel"
	"github.com/neomorfeo/merchantdesk/internal/domain"
)

type mockPublisher struct {
	events []domain.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event, _ domain.Application, _ domain.User) error {
	m.events = append(m.events, e)
	return m.err
}

func TestTracingPublisher_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockPublisher{}
	pub, err := adapter.NewTracingPublisher(inner)
	if err != nil {
		t.Fatalf("NewTracingPublisher failed: %v", err)
	}

	app := domain.NewApplication("app-1", "Ravi", nil)
	app.Status = domain.StatusSubmitted
	if err := pub.Publish(context.Background(), domain.EventSubmit, app, domain.UserForRole(domain.RoleAgent)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "EventPublisher.Publish" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "EventPublisher.Publish")
	}
	assertAttribute(t, spans[0], "event.type", "submit")
	assertAttribute(t, spans[0], "application.id", "app-1")
	assertAttribute(t, spans[0], "application.status", "SUBMITTED")
	assertAttribute(t, spans[0], "actor.role", "AGENT")

	if len(inner.events) != 1 {
		t.Errorf("inner publisher got %d events, want 1", len(inner.events))
	}
}

func TestTracingPublisher_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	pub, _ := adapter.NewTracingPublisher(&mockPublisher{err: errors.New("queue full")})

	err := pub.Publish(context.Background(), domain.EventApprove, domain.Application{ID: "x"}, domain.User{})
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status.Code)
	}
}

package otel_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/codes"

	adapter "github.com/neomorfeo/merchantdesk/internal/adapter/otel"
	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// stubBackend answers every call with err, or with zero values.
type stubBackend struct {
	err error
}

func (s stubBackend) SaveDraft(context.Context, domain.DraftUpsert) (string, error) {
	return "app-1", s.err
}
func (s stubBackend) UploadDocument(context.Context, domain.DocumentUpload) error { return s.err }
func (s stubBackend) Submit(context.Context, string) (domain.Application, error) {
	return domain.Application{}, s.err
}
func (s stubBackend) List(context.Context, domain.ListFilter) ([]domain.Application, error) {
	return []domain.Application{{ID: "a"}, {ID: "b"}}, s.err
}
func (s stubBackend) Get(context.Context, string) (domain.Application, error) {
	return domain.Application{}, s.err
}
func (s stubBackend) Documents(context.Context, string) (map[domain.DocumentType]string, error) {
	return nil, s.err
}
func (s stubBackend) Approve(context.Context, string) (domain.QRInfo, error) {
	return domain.QRInfo{}, s.err
}
func (s stubBackend) Reject(context.Context, string, domain.Rejection) (domain.Application, error) {
	return domain.Application{}, s.err
}
func (s stubBackend) SetDiscrepancy(context.Context, string, []domain.DiscrepancyItem, string) (domain.Application, error) {
	return domain.Application{}, s.err
}
func (s stubBackend) QR(context.Context, string) (domain.QRInfo, error) {
	return domain.QRInfo{}, s.err
}
func (s stubBackend) MetricsOverview(context.Context) (domain.MetricsOverview, error) {
	return domain.MetricsOverview{}, s.err
}
func (s stubBackend) RegisterAgent(context.Context, domain.AgentRegistration) error { return s.err }

func TestTracingBackend_SpanPerCall(t *testing.T) {
	exporter := setupTestTracer(t)
	b := adapter.NewTracingBackend(stubBackend{})
	ctx := context.Background()

	b.SaveDraft(ctx, domain.DraftUpsert{AgentID: "user_agent"})
	b.UploadDocument(ctx, domain.DocumentUpload{ApplicationID: "app-1", Type: domain.DocumentPAN, Size: 42})
	b.Submit(ctx, "app-1")
	b.List(ctx, domain.ListFilter{})
	b.Get(ctx, "app-1")
	b.Documents(ctx, "app-1")
	b.Approve(ctx, "app-1")
	b.Reject(ctx, "app-1", domain.Rejection{})
	b.SetDiscrepancy(ctx, "app-1", nil, "")
	b.QR(ctx, "app-1")
	b.MetricsOverview(ctx)
	b.RegisterAgent(ctx, domain.AgentRegistration{})

	spans := exporter.GetSpans()
	if len(spans) != 12 {
		t.Fatalf("got %d spans, want 12", len(spans))
	}
	assertAttribute(t, spans[0], "result.id", "app-1")
	assertAttribute(t, spans[1], "document.type", "pan")
	assertAttribute(t, spans[3], "result.count", "2")
	if spans[4].Name != "Backend.Get" {
		t.Errorf("span name = %q, want Backend.Get", spans[4].Name)
	}
	for _, s := range spans {
		if s.Status.Code == codes.Error {
			t.Errorf("span %s has error status", s.Name)
		}
	}
}

func TestTracingBackend_RecordsStatusCode(t *testing.T) {
	exporter := setupTestTracer(t)
	b := adapter.NewTracingBackend(stubBackend{err: &domain.BackendError{Op: "get", StatusCode: http.StatusBadGateway, Message: "down"}})

	_, err := b.Get(context.Background(), "app-1")
	var be *domain.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("error was not passed through: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status.Code)
	}
	assertAttribute(t, spans[0], "backend.status_code", "502")
}

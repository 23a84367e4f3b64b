package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

var _ domain.Backend = (*TracingBackend)(nil)

// TracingBackend wraps a domain.Backend with one span per call.
type TracingBackend struct {
	next   domain.Backend
	tracer trace.Tracer
}

func NewTracingBackend(next domain.Backend) *TracingBackend {
	return &TracingBackend{next: next, tracer: otel.Tracer(tracerName)}
}

func (b *TracingBackend) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, "Backend."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// finish records err on span and closes it.
func finish(span trace.Span, err error) {
	if err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) && be.StatusCode != 0 {
			span.SetAttributes(attribute.Int("backend.status_code", be.StatusCode))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func appID(id string) attribute.KeyValue {
	return attribute.String("application.id", id)
}

func (b *TracingBackend) SaveDraft(ctx context.Context, d domain.DraftUpsert) (id string, err error) {
	ctx, span := b.start(ctx, "SaveDraft", appID(d.ApplicationID), attribute.String("agent.id", d.AgentID))
	defer func() {
		span.SetAttributes(attribute.String("result.id", id))
		finish(span, err)
	}()
	return b.next.SaveDraft(ctx, d)
}

func (b *TracingBackend) UploadDocument(ctx context.Context, u domain.DocumentUpload) (err error) {
	ctx, span := b.start(ctx, "UploadDocument",
		appID(u.ApplicationID),
		attribute.String("document.type", string(u.Type)),
		attribute.String("document.mime_type", u.MimeType),
		attribute.Int64("document.size", u.Size),
	)
	defer func() { finish(span, err) }()
	return b.next.UploadDocument(ctx, u)
}

func (b *TracingBackend) Submit(ctx context.Context, id string) (_ domain.Application, err error) {
	ctx, span := b.start(ctx, "Submit", appID(id))
	defer func() { finish(span, err) }()
	return b.next.Submit(ctx, id)
}

func (b *TracingBackend) List(ctx context.Context, f domain.ListFilter) (apps []domain.Application, err error) {
	ctx, span := b.start(ctx, "List", attribute.Int("filter.statuses", len(f.Statuses)))
	defer func() {
		span.SetAttributes(attribute.Int("result.count", len(apps)))
		finish(span, err)
	}()
	return b.next.List(ctx, f)
}

func (b *TracingBackend) Get(ctx context.Context, id string) (_ domain.Application, err error) {
	ctx, span := b.start(ctx, "Get", appID(id))
	defer func() { finish(span, err) }()
	return b.next.Get(ctx, id)
}

func (b *TracingBackend) Documents(ctx context.Context, id string) (_ map[domain.DocumentType]string, err error) {
	ctx, span := b.start(ctx, "Documents", appID(id))
	defer func() { finish(span, err) }()
	return b.next.Documents(ctx, id)
}

func (b *TracingBackend) Approve(ctx context.Context, id string) (_ domain.QRInfo, err error) {
	ctx, span := b.start(ctx, "Approve", appID(id))
	defer func() { finish(span, err) }()
	return b.next.Approve(ctx, id)
}

func (b *TracingBackend) Reject(ctx context.Context, id string, r domain.Rejection) (_ domain.Application, err error) {
	ctx, span := b.start(ctx, "Reject", appID(id))
	defer func() { finish(span, err) }()
	return b.next.Reject(ctx, id, r)
}

func (b *TracingBackend) SetDiscrepancy(ctx context.Context, id string, items []domain.DiscrepancyItem, comment string) (_ domain.Application, err error) {
	ctx, span := b.start(ctx, "SetDiscrepancy", appID(id), attribute.Int("discrepancy.items", len(items)))
	defer func() { finish(span, err) }()
	return b.next.SetDiscrepancy(ctx, id, items, comment)
}

func (b *TracingBackend) QR(ctx context.Context, id string) (_ domain.QRInfo, err error) {
	ctx, span := b.start(ctx, "QR", appID(id))
	defer func() { finish(span, err) }()
	return b.next.QR(ctx, id)
}

func (b *TracingBackend) MetricsOverview(ctx context.Context) (_ domain.MetricsOverview, err error) {
	ctx, span := b.start(ctx, "MetricsOverview")
	defer func() { finish(span, err) }()
	return b.next.MetricsOverview(ctx)
}

func (b *TracingBackend) RegisterAgent(ctx context.Context, reg domain.AgentRegistration) (err error) {
	ctx, span := b.start(ctx, "RegisterAgent")
	defer func() { finish(span, err) }()
	return b.next.RegisterAgent(ctx, reg)
}

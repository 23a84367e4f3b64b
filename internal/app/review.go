package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// ReviewService carries approver decisions to the backend. Each action is
// checked against the status machine first and published once confirmed.
type ReviewService struct {
	backend     domain.Backend
	transitions domain.TransitionValidator
	publisher   domain.EventPublisher
	logger      *zap.Logger
}

// NewReviewService creates a ReviewService.
func NewReviewService(backend domain.Backend, transitions domain.TransitionValidator, publisher domain.EventPublisher, logger *zap.Logger) *ReviewService {
	return &ReviewService{backend: backend, transitions: transitions, publisher: publisher, logger: logger}
}

// Queue lists applications awaiting review. Without explicit statuses it
// shows SUBMITTED ones.
func (s *ReviewService) Queue(ctx context.Context, filter domain.ListFilter) ([]domain.Application, error) {
	if len(filter.Statuses) == 0 {
		filter.Statuses = []domain.Status{domain.StatusSubmitted}
	}
	apps, err := s.backend.List(ctx, domain.ListFilter{Statuses: filter.Statuses, Query: filter.Query})
	if err != nil {
		return nil, fmt.Errorf("listing review queue: %w", err)
	}
	return applyFilter(apps, filter), nil
}

// Actions lists the events role may request on an application in status
// current.
func (s *ReviewService) Actions(current domain.Status, role domain.Role) []domain.Event {
	var out []domain.Event
	for _, e := range s.transitions.Available(current) {
		if e.Actor() == role {
			out = append(out, e)
		}
	}
	return out
}

// check loads the application and verifies event may be requested.
func (s *ReviewService) check(ctx context.Context, id string, event domain.Event) (domain.Application, domain.Status, error) {
	app, err := s.backend.Get(ctx, id)
	if err != nil {
		return domain.Application{}, "", err
	}
	dst, err := s.transitions.Apply(ctx, app.Status, event)
	if err != nil {
		return domain.Application{}, "", err
	}
	return app, dst, nil
}

// Approve approves a submitted application and returns its payment QR.
func (s *ReviewService) Approve(ctx context.Context, actor domain.User, id string) (domain.QRInfo, error) {
	app, dst, err := s.check(ctx, id, domain.EventApprove)
	if err != nil {
		return domain.QRInfo{}, err
	}

	qr, err := s.backend.Approve(ctx, id)
	if err != nil {
		return domain.QRInfo{}, fmt.Errorf("approving application: %w", err)
	}

	app.Status = dst
	publish(ctx, s.publisher, s.logger, domain.EventApprove, app, actor)
	return qr, nil
}

// DefaultRejectionReason is sent when the approver gives no reason.
const DefaultRejectionReason = "Rejected by approver"

// Reject rejects a submitted application. A comment is required.
func (s *ReviewService) Reject(ctx context.Context, actor domain.User, id string, r domain.Rejection) (domain.Application, error) {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		r.Reason = DefaultRejectionReason
	}
	r.Comment = strings.TrimSpace(r.Comment)
	if r.Comment == "" {
		return domain.Application{}, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "comment", Message: "Please provide a rejection comment"},
		}}
	}

	if _, _, err := s.check(ctx, id, domain.EventReject); err != nil {
		return domain.Application{}, err
	}

	app, err := s.backend.Reject(ctx, id, r)
	if err != nil {
		return domain.Application{}, fmt.Errorf("rejecting application: %w", err)
	}

	publish(ctx, s.publisher, s.logger, domain.EventReject, app, actor)
	return app, nil
}

// DiscrepancyRequest selects catalogue codes and optional free text.
type DiscrepancyRequest struct {
	Codes   []string
	Custom  string
	Comment string
}

// Items expands the request into discrepancy items: catalogue codes carry
// their catalogue message and free text becomes a CUSTOM item.
func (r DiscrepancyRequest) Items() ([]domain.DiscrepancyItem, error) {
	var items []domain.DiscrepancyItem
	seen := make(map[string]bool)
	for _, code := range r.Codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		item, ok := lookupDiscrepancy(code)
		if !ok {
			return nil, &domain.ValidationError{Fields: []domain.FieldError{
				{Field: "codes", Message: fmt.Sprintf("Unknown discrepancy code %q", code)},
			}}
		}
		seen[code] = true
		items = append(items, item)
	}
	if custom := strings.TrimSpace(r.Custom); custom != "" {
		items = append(items, domain.DiscrepancyItem{Code: domain.CustomDiscrepancyCode, Message: custom})
	}
	if len(items) == 0 {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "codes", Message: "Please select at least one discrepancy"},
		}}
	}
	return items, nil
}

func lookupDiscrepancy(code string) (domain.DiscrepancyItem, bool) {
	for _, d := range domain.DiscrepancyCodes {
		if d.Code == code {
			return d, true
		}
	}
	return domain.DiscrepancyItem{}, false
}

// FlagDiscrepancy returns a submitted application to its agent with items to fix.
func (s *ReviewService) FlagDiscrepancy(ctx context.Context, actor domain.User, id string, req DiscrepancyRequest) (domain.Application, error) {
	items, err := req.Items()
	if err != nil {
		return domain.Application{}, err
	}

	if _, _, err := s.check(ctx, id, domain.EventFlagDiscrepancy); err != nil {
		return domain.Application{}, err
	}

	app, err := s.backend.SetDiscrepancy(ctx, id, items, strings.TrimSpace(req.Comment))
	if err != nil {
		return domain.Application{}, fmt.Errorf("flagging discrepancy: %w", err)
	}

	publish(ctx, s.publisher, s.logger, domain.EventFlagDiscrepancy, app, actor)
	return app, nil
}

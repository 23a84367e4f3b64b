package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// ApplicationService serves read access to applications plus agent
// registration. Persistence lives in the backend.
type ApplicationService struct {
	backend domain.Backend
	rules   domain.FieldValidator
}

// NewApplicationService creates an ApplicationService.
func NewApplicationService(backend domain.Backend, rules domain.FieldValidator) *ApplicationService {
	return &ApplicationService{backend: backend, rules: rules}
}

// List returns applications matching filter. Status and free text are
// evaluated by the backend; the remaining criteria are applied here.
func (s *ApplicationService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Application, error) {
	apps, err := s.backend.List(ctx, domain.ListFilter{Statuses: filter.Statuses, Query: filter.Query})
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return applyFilter(apps, filter), nil
}

// Get returns one application with its document links.
func (s *ApplicationService) Get(ctx context.Context, id string) (domain.Application, error) {
	app, err := s.backend.Get(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}

	if len(app.Documents) == 0 {
		urls, err := s.backend.Documents(ctx, id)
		if err != nil {
			return domain.Application{}, fmt.Errorf("listing documents: %w", err)
		}
		for _, st := range domain.Stages {
			for _, d := range st.Documents {
				t, _ := d.Slot.DocumentType()
				if u, ok := urls[t]; ok {
					app.Documents = append(app.Documents, domain.Document{Type: t, URL: u})
				}
			}
		}
	}
	return app, nil
}

// QR returns the payment QR details of an approved application.
func (s *ApplicationService) QR(ctx context.Context, id string) (domain.QRInfo, error) {
	return s.backend.QR(ctx, id)
}

// Metrics returns the dashboard overview precomputed by the backend.
func (s *ApplicationService) Metrics(ctx context.Context) (domain.MetricsOverview, error) {
	return s.backend.MetricsOverview(ctx)
}

// RegisterAgent validates reg and forwards it to the backend.
func (s *ApplicationService) RegisterAgent(ctx context.Context, reg domain.AgentRegistration) error {
	checks := []struct {
		field   domain.FieldName
		value   string
		tag     string
		message string
	}{
		{"agentName", reg.AgentName, "required", "Agent name is required"},
		{"mobileNumber", reg.MobileNumber, "required," + domain.FormatMobile, "Mobile must be 10 digits"},
		{"email", reg.Email, "required,email", "Invalid email address"},
	}

	var failures []domain.FieldError
	for _, c := range checks {
		if err := s.rules.Validate(ctx, c.value, c.tag); err != nil {
			failures = append(failures, domain.FieldError{Field: c.field, Message: c.message})
		}
	}
	if len(failures) > 0 {
		return &domain.ValidationError{Fields: failures}
	}

	reg.AgentName = strings.TrimSpace(reg.AgentName)
	reg.MobileNumber = strings.TrimSpace(reg.MobileNumber)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := s.backend.RegisterAgent(ctx, reg); err != nil {
		return fmt.Errorf("registering agent: %w", err)
	}
	return nil
}

// Package local serves the onboarding backend contract from the service's
// own SQLite database, for demos and development without the remote system.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neomorfeo/merchantdesk/internal/adapter/sqlite"
	"github.com/neomorfeo/merchantdesk/internal/domain"
)

var _ domain.Backend = (*Backend)(nil)

const qrImageBase = "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data="

// Backend implements domain.Backend on top of the SQLite repositories.
// Status changes go through the same transition validator the BFF uses.
type Backend struct {
	apps        domain.ApplicationRepository
	agents      *sqlite.AgentRepository
	transitions domain.TransitionValidator
	now         func() time.Time
}

// New creates a local backend.
func New(apps domain.ApplicationRepository, agents *sqlite.AgentRepository, transitions domain.TransitionValidator) *Backend {
	return &Backend{
		apps:        apps,
		agents:      agents,
		transitions: transitions,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func conflict(op, msg string) error {
	return &domain.BackendError{Op: op, StatusCode: http.StatusConflict, Message: msg}
}

func (b *Backend) SaveDraft(ctx context.Context, d domain.DraftUpsert) (string, error) {
	if d.ApplicationID == "" {
		app := domain.NewApplication(uuid.NewString(), d.AgentName, domain.NewDraft())
		app.Fields.Merge(d.Fields)
		app.CreatedAt, app.UpdatedAt = b.now(), b.now()
		if err := b.apps.Create(ctx, app); err != nil {
			return "", err
		}
		return app.ID, nil
	}

	app, err := b.apps.GetByID(ctx, d.ApplicationID)
	if err != nil {
		return "", err
	}
	if !app.Status.Editable() {
		return "", conflict("save draft", fmt.Sprintf("application is %s and can no longer be edited", app.Status))
	}
	app.Fields.Merge(d.Fields)
	app.UpdatedAt = b.now()
	if err := b.apps.Update(ctx, app); err != nil {
		return "", err
	}
	return app.ID, nil
}

// UploadDocument records the document against the application, replacing an
// earlier file of the same type. Content is counted, not kept.
func (b *Backend) UploadDocument(ctx context.Context, u domain.DocumentUpload) error {
	app, err := b.apps.GetByID(ctx, u.ApplicationID)
	if err != nil {
		return err
	}
	if !app.Status.Editable() {
		return conflict("upload "+string(u.Type), fmt.Sprintf("application is %s", app.Status))
	}

	size := u.Size
	if u.Content != nil {
		n, err := io.Copy(io.Discard, u.Content)
		if err != nil {
			return fmt.Errorf("reading %s: %w", u.FileName, err)
		}
		size = n
	}

	doc := domain.Document{
		Type: u.Type,
		Name: u.FileName,
		Size: size,
		URL:  fmt.Sprintf("/files/applications/%s/%s/%s", app.ID, u.Type, url.PathEscape(u.FileName)),
	}
	replaced := false
	for i, d := range app.Documents {
		if d.Type == u.Type {
			app.Documents[i] = doc
			replaced = true
		}
	}
	if !replaced {
		app.Documents = append(app.Documents, doc)
	}
	app.UpdatedAt = b.now()
	return b.apps.Update(ctx, app)
}

// transition applies event to the stored application and persists mutate's changes.
func (b *Backend) transition(ctx context.Context, id string, event domain.Event, mutate func(*domain.Application)) (domain.Application, error) {
	app, err := b.apps.GetByID(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}
	next, err := b.transitions.Apply(ctx, app.Status, event)
	if err != nil {
		return domain.Application{}, err
	}

	app.Status = next
	app.UpdatedAt = b.now()
	if mutate != nil {
		mutate(&app)
	}
	if err := b.apps.Update(ctx, app); err != nil {
		return domain.Application{}, err
	}
	return app, nil
}

func (b *Backend) Submit(ctx context.Context, id string) (domain.Application, error) {
	app, err := b.apps.GetByID(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}
	return b.transition(ctx, id, domain.SubmitEvent(app.Status), func(a *domain.Application) {
		for i := range a.DiscrepancyItems {
			a.DiscrepancyItems[i].Resolved = true
		}
	})
}

func (b *Backend) List(ctx context.Context, f domain.ListFilter) ([]domain.Application, error) {
	return b.apps.List(ctx, f)
}

func (b *Backend) Get(ctx context.Context, id string) (domain.Application, error) {
	return b.apps.GetByID(ctx, id)
}

func (b *Backend) Documents(ctx context.Context, id string) (map[domain.DocumentType]string, error) {
	app, err := b.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.DocumentType]string, len(app.Documents))
	for _, d := range app.Documents {
		out[d.Type] = d.URL
	}
	return out, nil
}

func (b *Backend) Approve(ctx context.Context, id string) (domain.QRInfo, error) {
	if _, err := b.transition(ctx, id, domain.EventApprove, nil); err != nil {
		return domain.QRInfo{}, err
	}
	return qrFor(id), nil
}

func (b *Backend) Reject(ctx context.Context, id string, r domain.Rejection) (domain.Application, error) {
	return b.transition(ctx, id, domain.EventReject, func(a *domain.Application) {
		a.RejectionReason = r.Reason
		a.RejectionComment = r.Comment
	})
}

func (b *Backend) SetDiscrepancy(ctx context.Context, id string, items []domain.DiscrepancyItem, comment string) (domain.Application, error) {
	if len(items) == 0 {
		return domain.Application{}, &domain.BackendError{Op: "set discrepancy", StatusCode: http.StatusBadRequest, Message: "at least one item is required"}
	}
	return b.transition(ctx, id, domain.EventFlagDiscrepancy, func(a *domain.Application) {
		a.DiscrepancyItems = append([]domain.DiscrepancyItem(nil), items...)
		if comment = strings.TrimSpace(comment); comment != "" {
			a.DiscrepancyItems = append(a.DiscrepancyItems, domain.DiscrepancyItem{Code: domain.CustomDiscrepancyCode, Message: comment})
		}
	})
}

// QR returns the payment address of an approved merchant.
func (b *Backend) QR(ctx context.Context, id string) (domain.QRInfo, error) {
	app, err := b.apps.GetByID(ctx, id)
	if err != nil {
		return domain.QRInfo{}, err
	}
	if app.Status != domain.StatusApproved {
		return domain.QRInfo{}, conflict("get qr", "application is not approved")
	}
	return qrFor(id), nil
}

func qrFor(id string) domain.QRInfo {
	vpa := "merchant" + id + "@upi"
	payload := "upi://pay?pa=" + vpa + "&pn=Merchant&cu=INR"
	return domain.QRInfo{
		VPA:      vpa,
		Payload:  payload,
		ImageURL: qrImageBase + url.QueryEscape(payload),
	}
}

func (b *Backend) RegisterAgent(ctx context.Context, reg domain.AgentRegistration) error {
	err := b.agents.Create(ctx, sqlite.Agent{
		ID:                uuid.NewString(),
		AgentRegistration: reg,
		CreatedAt:         b.now(),
	})
	if errors.Is(err, sqlite.ErrAgentExists) {
		return conflict("register agent", err.Error())
	}
	return err
}

package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// --- Mocks ---

type mockBackend struct {
	mu           sync.Mutex
	apps         map[string]domain.Application
	docs         map[string]map[domain.DocumentType]string
	lastFilter   domain.ListFilter
	rejections   []domain.Rejection
	discrepancy  []domain.DiscrepancyItem
	registered   []domain.AgentRegistration
	nextID       int
	approveErr   error
	submitCalled int
}

func newMockBackend(apps ...domain.Application) *mockBackend {
	m := &mockBackend{
		apps: make(map[string]domain.Application),
		docs: make(map[string]map[domain.DocumentType]string),
	}
	for _, a := range apps {
		m.apps[a.ID] = a
	}
	return m
}

func (m *mockBackend) SaveDraft(_ context.Context, d domain.DraftUpsert) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := d.ApplicationID
	if id == "" {
		m.nextID++
		id = fmt.Sprintf("app-%d", m.nextID)
	}
	app := domain.NewApplication(id, d.AgentName, d.Fields)
	if prev, ok := m.apps[id]; ok {
		app.Status = prev.Status
	}
	m.apps[id] = app
	return id, nil
}

func (m *mockBackend) UploadDocument(_ context.Context, u domain.DocumentUpload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[u.ApplicationID] == nil {
		m.docs[u.ApplicationID] = make(map[domain.DocumentType]string)
	}
	m.docs[u.ApplicationID][u.Type] = "https://files.example/" + u.FileName
	return nil
}

func (m *mockBackend) Submit(_ context.Context, id string) (domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCalled++
	app, ok := m.apps[id]
	if !ok {
		return domain.Application{}, domain.ErrApplicationNotFound
	}
	app.Status = domain.StatusSubmitted
	m.apps[id] = app
	return app, nil
}

func (m *mockBackend) List(_ context.Context, f domain.ListFilter) ([]domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f
	var out []domain.Application
	for _, a := range m.apps {
		if f.Query != "" && !strings.Contains(a.Fields.Get(domain.FieldFirm), f.Query) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockBackend) Get(_ context.Context, id string) (domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return domain.Application{}, domain.ErrApplicationNotFound
	}
	return app, nil
}

func (m *mockBackend) Documents(_ context.Context, id string) (map[domain.DocumentType]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id], nil
}

func (m *mockBackend) Approve(_ context.Context, id string) (domain.QRInfo, error) {
	if m.approveErr != nil {
		return domain.QRInfo{}, m.approveErr
	}
	m.setStatus(id, domain.StatusApproved)
	return domain.QRInfo{VPA: "merchant" + id + "@upi"}, nil
}

func (m *mockBackend) Reject(_ context.Context, id string, r domain.Rejection) (domain.Application, error) {
	m.mu.Lock()
	m.rejections = append(m.rejections, r)
	m.mu.Unlock()
	return m.setStatus(id, domain.StatusRejected), nil
}

func (m *mockBackend) SetDiscrepancy(_ context.Context, id string, items []domain.DiscrepancyItem, _ string) (domain.Application, error) {
	m.mu.Lock()
	m.discrepancy = items
	m.mu.Unlock()
	return m.setStatus(id, domain.StatusDiscrepancy), nil
}

func (m *mockBackend) QR(_ context.Context, id string) (domain.QRInfo, error) {
	return domain.QRInfo{VPA: "merchant" + id + "@upi"}, nil
}

func (m *mockBackend) MetricsOverview(context.Context) (domain.MetricsOverview, error) {
	return domain.MetricsOverview{Total: len(m.apps)}, nil
}

func (m *mockBackend) RegisterAgent(_ context.Context, reg domain.AgentRegistration) error {
	m.registered = append(m.registered, reg)
	return nil
}

func (m *mockBackend) setStatus(id string, s domain.Status) domain.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	app := m.apps[id]
	app.Status = s
	m.apps[id] = app
	return app
}

type mockSessions struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMockSessions() *mockSessions {
	return &mockSessions{users: make(map[string]domain.User)}
}

func (m *mockSessions) Save(_ context.Context, id string, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = u
	return nil
}

func (m *mockSessions) Load(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrSessionNotFound
	}
	return u, nil
}

func (m *mockSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.users, id)
	return nil
}

// plainTokens uses the session id itself as the token.
type plainTokens struct{}

func (plainTokens) Issue(id string) (string, error) { return "tok." + id, nil }

func (plainTokens) Parse(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "tok.")
	if !ok {
		return "", errors.New("malformed token")
	}
	return id, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	event domain.Event
	app   domain.Application
	actor domain.User
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event, a domain.Application, actor domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{event: e, app: a, actor: actor})
	return m.err
}

func (m *mockPublisher) last() publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[len(m.events)-1]
}

type recordingListener struct {
	ended []string
}

func (r *recordingListener) EndSession(id string) { r.ended = append(r.ended, id) }

func completeDraft() domain.Draft {
	return domain.Draft{
		domain.FieldApplName:      "Acme application",
		domain.FieldFirm:          "Acme Traders",
		domain.FieldContactPerson: "Ravi Kumar",
		domain.FieldMobile:        "9876543210",
		domain.FieldInstAddr1:     "12 MG Road",
		domain.FieldInstLocality:  "Fort",
		domain.FieldCity:          "Mumbai",
		domain.FieldInstPincode:   "400001",
		domain.FieldMCC:           "5411",
		domain.FieldPAN:           "ABCDE1234F",
		domain.FieldPANDob:        "1990-01-01",
		domain.FieldAccountType:   "current",
		domain.FieldAccountName:   "Acme Traders",
		domain.FieldIFSC:          "HDFC0001234",
		domain.FieldAccountNumber: "123456789012",
		domain.FieldServiceType:   "QR",
	}
}

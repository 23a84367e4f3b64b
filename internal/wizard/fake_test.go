package wizard_test

import (
	"context"
	"io"
	"sync"

	"github.com/neomorfeo/merchantdesk/internal/adapter/fsm"
	"github.com/neomorfeo/merchantdesk/internal/adapter/rules"
	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/preview"
	"github.com/neomorfeo/merchantdesk/internal/wizard"
)

// fakeBackend records calls. Set block to hold SaveDraft until it is closed,
// and holdType with uploadBlock to hold uploads of one document type.
type fakeBackend struct {
	mu        sync.Mutex
	saves     []domain.DraftUpsert
	uploads   map[domain.DocumentType]string
	submitted []string
	saveErr   error
	uploadErr map[domain.DocumentType]error
	submitErr error
	block     chan struct{}
	entered   chan struct{}

	holdType      domain.DocumentType
	uploadBlock   chan struct{}
	uploadEntered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		uploads:   make(map[domain.DocumentType]string),
		uploadErr: make(map[domain.DocumentType]error),
	}
}

func (f *fakeBackend) SaveDraft(ctx context.Context, d domain.DraftUpsert) (string, error) {
	if f.block != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saves = append(f.saves, d)
	if d.ApplicationID != "" {
		return d.ApplicationID, nil
	}
	return "app-1", nil
}

func (f *fakeBackend) UploadDocument(_ context.Context, u domain.DocumentUpload) error {
	if f.uploadBlock != nil && u.Type == f.holdType {
		f.uploadEntered <- struct{}{}
		<-f.uploadBlock
	}
	body, _ := io.ReadAll(u.Content)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uploadErr[u.Type]; err != nil {
		return err
	}
	f.uploads[u.Type] = string(body)
	return nil
}

func (f *fakeBackend) Submit(_ context.Context, id string) (domain.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return domain.Application{}, f.submitErr
	}
	f.submitted = append(f.submitted, id)
	return domain.Application{ID: id, Status: domain.StatusSubmitted}, nil
}

func (f *fakeBackend) List(context.Context, domain.ListFilter) ([]domain.Application, error) {
	return nil, nil
}

func (f *fakeBackend) Get(context.Context, string) (domain.Application, error) {
	return domain.Application{}, domain.ErrApplicationNotFound
}

func (f *fakeBackend) Documents(context.Context, string) (map[domain.DocumentType]string, error) {
	return nil, nil
}

func (f *fakeBackend) Approve(context.Context, string) (domain.QRInfo, error) {
	return domain.QRInfo{}, nil
}

func (f *fakeBackend) Reject(context.Context, string, domain.Rejection) (domain.Application, error) {
	return domain.Application{}, nil
}

func (f *fakeBackend) SetDiscrepancy(context.Context, string, []domain.DiscrepancyItem, string) (domain.Application, error) {
	return domain.Application{}, nil
}

func (f *fakeBackend) QR(context.Context, string) (domain.QRInfo, error) {
	return domain.QRInfo{}, nil
}

func (f *fakeBackend) MetricsOverview(context.Context) (domain.MetricsOverview, error) {
	return domain.MetricsOverview{}, nil
}

func (f *fakeBackend) RegisterAgent(context.Context, domain.AgentRegistration) error {
	return nil
}

func newDeps(b domain.Backend) (wizard.Deps, *preview.Registry) {
	reg := preview.NewRegistry()
	return wizard.Deps{
		Backend:     b,
		Transitions: fsm.New(),
		Rules:       rules.New(),
		Previews:    reg,
	}, reg
}

var (
	agent   = domain.UserForRole(domain.RoleAgent)
	pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdfData = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
)

func completeValues() map[domain.FieldName]string {
	return map[domain.FieldName]string{
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

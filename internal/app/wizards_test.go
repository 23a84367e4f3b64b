package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/neomorfeo/merchantdesk/internal/adapter/fsm"
	"github.com/neomorfeo/merchantdesk/internal/adapter/rules"
	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/preview"
	"github.com/neomorfeo/merchantdesk/internal/wizard"
)

var pdfData = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

func newWizardService(t *testing.T, b domain.Backend, pub domain.EventPublisher) (*app.WizardService, *preview.Registry) {
	t.Helper()
	reg := preview.NewRegistry()
	deps := wizard.Deps{Backend: b, Transitions: fsm.New(), Rules: rules.New(), Previews: reg}
	return app.NewWizardService(deps, pub, zaptest.NewLogger(t)), reg
}

func agentSession(id string) app.Session {
	return app.Session{ID: id, User: domain.UserForRole(domain.RoleAgent)}
}

func TestWizardService_OnePerSession(t *testing.T) {
	svc, reg := newWizardService(t, newMockBackend(), &mockPublisher{})
	sess := agentSession("s1")

	first := svc.Start(sess)
	first.StageFile(domain.SlotPANDocument, "pan.pdf", "application/pdf", pdfData)
	second := svc.Start(sess)

	if _, err := first.View(); !errors.Is(err, domain.ErrWizardNotFound) {
		t.Error("previous wizard still open after Start")
	}
	if reg.Len() != 0 {
		t.Errorf("previews leaked: %d", reg.Len())
	}
	got, err := svc.Get(sess.ID)
	if err != nil || got != second {
		t.Errorf("Get = %v, %v", got, err)
	}

	svc.Start(agentSession("s2"))
	if svc.Active() != 2 {
		t.Errorf("Active() = %d, want 2", svc.Active())
	}
}

func TestWizardService_EndSessionDiscards(t *testing.T) {
	svc, _ := newWizardService(t, newMockBackend(), &mockPublisher{})
	svc.Start(agentSession("s1"))

	svc.EndSession("s1")
	if _, err := svc.Get("s1"); !errors.Is(err, domain.ErrWizardNotFound) {
		t.Errorf("Get after EndSession = %v", err)
	}
}

func TestWizardService_SweepClosesIdle(t *testing.T) {
	svc, reg := newWizardService(t, newMockBackend(), &mockPublisher{})
	idle := svc.Start(agentSession("s1"))
	idle.StageFile(domain.SlotPANDocument, "pan.pdf", "application/pdf", pdfData)

	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	busy := svc.Start(agentSession("s2"))

	if n := svc.Sweep(cutoff); n != 1 {
		t.Errorf("Sweep = %d, want 1", n)
	}
	if _, err := idle.View(); !errors.Is(err, domain.ErrWizardNotFound) {
		t.Error("idle wizard still open")
	}
	if reg.Len() != 0 {
		t.Errorf("previews leaked: %d", reg.Len())
	}
	if got, err := svc.Get("s2"); err != nil || got != busy {
		t.Errorf("Get(s2) = %v, %v", got, err)
	}
}

func TestWizardService_GetKeepsWizardAlive(t *testing.T) {
	svc, _ := newWizardService(t, newMockBackend(), &mockPublisher{})
	svc.Start(agentSession("s1"))

	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, err := svc.Get("s1"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if n := svc.Sweep(cutoff); n != 0 {
		t.Errorf("Sweep = %d, want 0", n)
	}
}

func TestWizardService_SaveUploadSubmit(t *testing.T) {
	b := newMockBackend()
	pub := &mockPublisher{}
	svc, _ := newWizardService(t, b, pub)
	sess := agentSession("s1")
	ctx := context.Background()

	w := svc.Start(sess)
	w.SetFields(completeDraft())

	id, err := svc.SaveDraft(ctx, sess)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if pub.last().event != domain.EventDraftSaved || pub.last().app.ID != id {
		t.Errorf("draft event = %+v", pub.last())
	}

	w.StageFile(domain.SlotPANDocument, "pan.pdf", "application/pdf", pdfData)
	if _, err := svc.UploadDocuments(ctx, sess); err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}
	if pub.last().event != domain.EventDocumentUploaded {
		t.Errorf("upload event = %q", pub.last().event)
	}
	if _, ok := b.docs[id][domain.DocumentPAN]; !ok {
		t.Error("document not uploaded under its type")
	}

	submitted, err := svc.Submit(ctx, sess)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != domain.StatusSubmitted {
		t.Errorf("status = %q", submitted.Status)
	}
	if pub.last().event != domain.EventSubmit {
		t.Errorf("submit event = %q", pub.last().event)
	}
	if _, err := svc.Get(sess.ID); !errors.Is(err, domain.ErrWizardNotFound) {
		t.Error("wizard still active after submit")
	}
}

func TestWizardService_PublishFailureDoesNotFailAction(t *testing.T) {
	pub := &mockPublisher{err: errors.New("queue down")}
	svc, _ := newWizardService(t, newMockBackend(), pub)
	sess := agentSession("s1")
	svc.Start(sess)

	if _, err := svc.SaveDraft(context.Background(), sess); err != nil {
		t.Fatalf("SaveDraft = %v, want nil", err)
	}
}

func TestWizardService_StartEdit(t *testing.T) {
	draft := domain.NewApplication("app-7", "Agent User", completeDraft())
	flagged := domain.NewApplication("app-8", "Agent User", completeDraft())
	flagged.Status = domain.StatusDiscrepancy
	approved := domain.NewApplication("app-9", "Agent User", completeDraft())
	approved.Status = domain.StatusApproved

	b := newMockBackend(draft, flagged, approved)
	pub := &mockPublisher{}
	svc, _ := newWizardService(t, b, pub)
	sess := agentSession("s1")
	ctx := context.Background()

	if _, err := svc.StartEdit(ctx, sess, "app-9"); !errors.Is(err, domain.ErrNotEditable) {
		t.Errorf("StartEdit(approved) = %v, want ErrNotEditable", err)
	}
	if _, err := svc.StartEdit(ctx, sess, "missing"); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Errorf("StartEdit(missing) = %v, want ErrApplicationNotFound", err)
	}

	w, err := svc.StartEdit(ctx, sess, "app-8")
	if err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	view, _ := w.View()
	if view.ApplicationID != "app-8" || !view.CanSubmit {
		t.Errorf("edit view = %+v", view)
	}

	if _, err := svc.SaveDraft(ctx, sess); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if got := pub.last(); got.event != domain.EventDraftSaved || got.app.Status != domain.StatusDiscrepancy {
		t.Errorf("draft saved event = %q with status %q, want DISCREPANCY", got.event, got.app.Status)
	}

	if _, err := svc.Submit(ctx, sess); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if pub.last().event != domain.EventResubmit {
		t.Errorf("event = %q, want resubmit", pub.last().event)
	}
}

func TestWizardService_NoWizard(t *testing.T) {
	svc, _ := newWizardService(t, newMockBackend(), &mockPublisher{})

	if _, err := svc.SaveDraft(context.Background(), agentSession("nobody")); !errors.Is(err, domain.ErrWizardNotFound) {
		t.Errorf("SaveDraft without wizard = %v", err)
	}
}

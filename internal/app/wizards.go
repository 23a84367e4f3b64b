package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/wizard"
)

// WizardService keeps at most one active application wizard per login
// session and publishes an event for every confirmed backend action.
type WizardService struct {
	backend   domain.Backend
	deps      wizard.Deps
	publisher domain.EventPublisher
	logger    *zap.Logger

	mu     sync.Mutex
	active map[string]*activeWizard
}

type activeWizard struct {
	w        *wizard.Wizard
	lastUsed time.Time
}

// NewWizardService creates a WizardService. deps.Backend is used both for the
// wizards it creates and for loading applications to edit.
func NewWizardService(deps wizard.Deps, publisher domain.EventPublisher, logger *zap.Logger) *WizardService {
	return &WizardService{
		backend:   deps.Backend,
		deps:      deps,
		publisher: publisher,
		logger:    logger,
		active:    make(map[string]*activeWizard),
	}
}

// Start opens an empty wizard, discarding the session's previous one.
func (s *WizardService) Start(sess Session) *wizard.Wizard {
	w := wizard.New(generateID(), sess.User, s.deps)
	s.replace(sess.ID, w)
	return w
}

// StartEdit opens a wizard over an existing DRAFT or DISCREPANCY application.
func (s *WizardService) StartEdit(ctx context.Context, sess Session, applicationID string) (*wizard.Wizard, error) {
	app, err := s.backend.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.Status.Editable() {
		return nil, fmt.Errorf("%w: status %s", domain.ErrNotEditable, app.Status)
	}

	w := wizard.Edit(generateID(), sess.User, app, s.deps)
	s.replace(sess.ID, w)
	return w, nil
}

func (s *WizardService) replace(sessionID string, w *wizard.Wizard) {
	s.mu.Lock()
	prev := s.active[sessionID]
	s.active[sessionID] = &activeWizard{w: w, lastUsed: time.Now()}
	s.mu.Unlock()

	if prev != nil {
		prev.w.Close()
	}
}

// Get returns the session's active wizard.
func (s *WizardService) Get(sessionID string) (*wizard.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.active[sessionID]
	if !ok {
		return nil, domain.ErrWizardNotFound
	}
	a.lastUsed = time.Now()
	return a.w, nil
}

// Discard tears down the session's active wizard, if any.
func (s *WizardService) Discard(sessionID string) {
	s.mu.Lock()
	a := s.active[sessionID]
	delete(s.active, sessionID)
	s.mu.Unlock()

	if a != nil {
		a.w.Close()
	}
}

// Sweep tears down every wizard not used since before cutoff and reports how
// many it closed. Sessions that expire without a logout only reach their
// wizard through here or through Resolve.
func (s *WizardService) Sweep(cutoff time.Time) int {
	var stale []*wizard.Wizard
	s.mu.Lock()
	for id, a := range s.active {
		if a.lastUsed.Before(cutoff) {
			stale = append(stale, a.w)
			delete(s.active, id)
		}
	}
	s.mu.Unlock()

	for _, w := range stale {
		w.Close()
	}
	return len(stale)
}

// EndSession implements SessionListener.
func (s *WizardService) EndSession(sessionID string) {
	s.Discard(sessionID)
}

// Active reports how many wizards are open.
func (s *WizardService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// SaveDraft upserts the draft of the session's wizard.
func (s *WizardService) SaveDraft(ctx context.Context, sess Session) (string, error) {
	w, err := s.Get(sess.ID)
	if err != nil {
		return "", err
	}

	id, err := w.SaveDraft(ctx)
	if err != nil {
		return "", err
	}

	view, _ := w.View()
	status := domain.StatusDraft
	if saved, ok := view.State.(wizard.Saved); ok {
		status = saved.Status
	}
	s.publish(ctx, domain.EventDraftSaved, domain.Application{
		ID:        id,
		Status:    status,
		Fields:    view.Draft,
		AgentName: sess.User.Name,
	}, sess.User)
	return id, nil
}

// UploadDocuments uploads every pending staged file of the session's wizard.
func (s *WizardService) UploadDocuments(ctx context.Context, sess Session) ([]wizard.StagedFile, error) {
	w, err := s.Get(sess.ID)
	if err != nil {
		return nil, err
	}

	uploaded, err := w.UploadDocuments(ctx)
	s.publishUploads(ctx, w, sess.User, uploaded)
	return uploaded, err
}

// UploadDocument uploads the file staged under slot.
func (s *WizardService) UploadDocument(ctx context.Context, sess Session, slot domain.DocumentSlot) (wizard.StagedFile, error) {
	w, err := s.Get(sess.ID)
	if err != nil {
		return wizard.StagedFile{}, err
	}

	f, err := w.UploadDocument(ctx, slot)
	if err != nil {
		return wizard.StagedFile{}, err
	}
	s.publishUploads(ctx, w, sess.User, []wizard.StagedFile{f})
	return f, nil
}

func (s *WizardService) publishUploads(ctx context.Context, w *wizard.Wizard, actor domain.User, files []wizard.StagedFile) {
	view, err := w.View()
	if err != nil {
		return
	}
	for _, f := range files {
		docType, _ := f.Slot.DocumentType()
		s.publish(ctx, domain.EventDocumentUploaded, domain.Application{
			ID:        view.ApplicationID,
			Status:    domain.StatusDraft,
			AgentName: actor.Name,
			Documents: []domain.Document{{Type: docType, Name: f.Name, Size: f.Size}},
		}, actor)
	}
}

// Submit sends the session's application for review and closes its wizard.
func (s *WizardService) Submit(ctx context.Context, sess Session) (domain.Application, error) {
	w, err := s.Get(sess.ID)
	if err != nil {
		return domain.Application{}, err
	}

	before, err := w.View()
	if err != nil {
		return domain.Application{}, err
	}
	event := domain.EventSubmit
	if saved, ok := before.State.(wizard.Saved); ok {
		event = domain.SubmitEvent(saved.Status)
	}

	app, err := w.Submit(ctx)
	if err != nil {
		return domain.Application{}, err
	}

	s.mu.Lock()
	if a := s.active[sess.ID]; a != nil && a.w == w {
		delete(s.active, sess.ID)
	}
	s.mu.Unlock()
	w.Close()

	if app.Fields == nil {
		app.Fields = before.Draft
	}
	s.publish(ctx, event, app, sess.User)
	return app, nil
}

func (s *WizardService) publish(ctx context.Context, event domain.Event, app domain.Application, actor domain.User) {
	publish(ctx, s.publisher, s.logger, event, app, actor)
}

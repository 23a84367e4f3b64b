// Package wizard holds the per-session state of the application form:
// stage navigation, staged documents and the submission lifecycle.
package wizard

import (
	"context"
	"sync"

	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/preview"
)

// Deps are the collaborators a wizard needs.
type Deps struct {
	Backend     domain.Backend
	Transitions domain.TransitionValidator
	Rules       domain.FieldValidator
	Previews    Previewer
}

// Wizard is one agent's in-progress application form.
type Wizard struct {
	ID    string
	Agent domain.User

	mu     sync.Mutex
	ctrl   *Controller
	files  *FileStore
	coord  *Coordinator
	closed bool
}

// New starts an empty wizard for agent.
func New(id string, agent domain.User, deps Deps) *Wizard {
	files := NewFileStore(deps.Previews)
	return &Wizard{
		ID:    id,
		Agent: agent,
		ctrl:  NewController(deps.Rules, files),
		files: files,
		coord: NewCoordinator(deps.Backend, deps.Transitions, deps.Rules, agent),
	}
}

// Edit opens a wizard over an application the backend already holds.
func Edit(id string, agent domain.User, app domain.Application, deps Deps) *Wizard {
	w := New(id, agent, deps)
	w.ctrl.Load(app.Fields)
	w.coord = Resume(deps.Backend, deps.Transitions, deps.Rules, agent, app)
	return w
}

// StageStatus summarises one stage for display.
type StageStatus struct {
	ID       int
	Title    string
	Complete bool
}

// View is a consistent snapshot of a wizard.
type View struct {
	ID            string
	Current       int
	Progress      float64
	Stages        []StageStatus
	Draft         domain.Draft
	Files         []StagedFile
	State         State
	ApplicationID string
	CanSubmit     bool
}

// View returns a snapshot of the wizard.
func (w *Wizard) View() (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return View{}, domain.ErrWizardNotFound
	}
	return w.viewLocked(), nil
}

func (w *Wizard) viewLocked() View {
	stages := make([]StageStatus, len(domain.Stages))
	for i, st := range domain.Stages {
		stages[i] = StageStatus{ID: st.ID, Title: st.Title, Complete: w.ctrl.IsStageComplete(st.ID)}
	}
	return View{
		ID:            w.ID,
		Current:       w.ctrl.Current(),
		Progress:      w.ctrl.Progress(),
		Stages:        stages,
		Draft:         w.ctrl.Draft(),
		Files:         w.files.List(),
		State:         w.coord.State(),
		ApplicationID: w.coord.ApplicationID(),
		CanSubmit:     w.coord.CanSubmit(),
	}
}

// SetFields stores every value and returns the inline messages of those
// that fail their rule. Unknown names fail the whole call before any write.
func (w *Wizard) SetFields(values map[domain.FieldName]string) ([]domain.FieldError, error) {
	for name := range values {
		if _, ok := domain.LookupField(name); !ok {
			return nil, &domain.UnknownFieldError{Field: string(name)}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, domain.ErrWizardNotFound
	}

	var inline []domain.FieldError
	for _, f := range domain.Fields {
		value, ok := values[f.Name]
		if !ok {
			continue
		}
		fe, err := w.ctrl.SetField(f.Name, value)
		if err != nil {
			return nil, err
		}
		if fe != nil {
			inline = append(inline, *fe)
		}
	}
	return inline, nil
}

// Next advances one stage when the current one is complete.
func (w *Wizard) Next() (View, error) {
	return w.navigate(func() error { return w.ctrl.Next() })
}

// Prev goes back one stage.
func (w *Wizard) Prev() (View, error) {
	return w.navigate(func() error { w.ctrl.Prev(); return nil })
}

// JumpTo moves to stage id.
func (w *Wizard) JumpTo(id int) (View, error) {
	return w.navigate(func() error { return w.ctrl.JumpTo(id) })
}

func (w *Wizard) navigate(move func() error) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return View{}, domain.ErrWizardNotFound
	}
	if err := move(); err != nil {
		return w.viewLocked(), err
	}
	return w.viewLocked(), nil
}

// StageFile stages data under slot.
func (w *Wizard) StageFile(slot domain.DocumentSlot, name, mimeType string, data []byte) (StagedFile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return StagedFile{}, domain.ErrWizardNotFound
	}
	return w.files.Add(slot, name, mimeType, data)
}

// RemoveFile drops the file staged under slot.
func (w *Wizard) RemoveFile(slot domain.DocumentSlot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return domain.ErrWizardNotFound
	}
	if !w.files.Remove(slot) {
		return domain.ErrFileNotStaged
	}
	return nil
}

// OwnsPreview reports whether h previews one of this wizard's staged files.
func (w *Wizard) OwnsPreview(h preview.Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed && w.files.Holds(h)
}

// SaveDraft upserts the current field values.
func (w *Wizard) SaveDraft(ctx context.Context) (string, error) {
	draft, err := w.draft()
	if err != nil {
		return "", err
	}
	return w.coord.SaveDraft(ctx, draft)
}

// UploadDocuments uploads every staged file not yet uploaded.
func (w *Wizard) UploadDocuments(ctx context.Context) ([]StagedFile, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, domain.ErrWizardNotFound
	}
	pending := w.files.Pending()
	w.mu.Unlock()

	return w.upload(ctx, pending)
}

// UploadDocument uploads the file staged under slot.
func (w *Wizard) UploadDocument(ctx context.Context, slot domain.DocumentSlot) (StagedFile, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return StagedFile{}, domain.ErrWizardNotFound
	}
	f, ok := w.files.Get(slot)
	w.mu.Unlock()
	if !ok {
		return StagedFile{}, domain.ErrFileNotStaged
	}

	uploaded, err := w.upload(ctx, []StagedFile{f})
	if err != nil {
		return StagedFile{}, err
	}
	f.Uploaded = len(uploaded) == 1
	return f, nil
}

func (w *Wizard) upload(ctx context.Context, files []StagedFile) ([]StagedFile, error) {
	uploaded, err := w.coord.Upload(ctx, files)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		for _, f := range uploaded {
			w.files.MarkUploaded(f)
		}
	}
	for i := range uploaded {
		uploaded[i].Uploaded = true
	}
	return uploaded, err
}

// Submit sends the application for review.
func (w *Wizard) Submit(ctx context.Context) (domain.Application, error) {
	draft, err := w.draft()
	if err != nil {
		return domain.Application{}, err
	}
	return w.coord.Submit(ctx, draft)
}

// Close tears the wizard down and releases every preview. Idempotent.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.coord.Close()
	w.files.Close()
}

func (w *Wizard) draft() (domain.Draft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, domain.ErrWizardNotFound
	}
	return w.ctrl.Draft(), nil
}

package wizard

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// uploadConcurrency bounds parallel document uploads per wizard.
const uploadConcurrency = 4

// State is the submission state of a wizard: Unsaved, Saved or Submitted.
type State interface {
	state()
}

// Unsaved means no draft id has been established yet.
type Unsaved struct{}

// Saved means the backend holds a draft under ID.
type Saved struct {
	ID     string
	Status domain.Status
}

// Submitted means the application was sent for review.
type Submitted struct {
	ID     string
	Status domain.Status
}

func (Unsaved) state()   {}
func (Saved) state()     {}
func (Submitted) state() {}

// Coordinator sends drafts, documents and submissions to the backend and
// records the outcome. One save or submit runs at a time and each slot has at
// most one upload in flight; saves and uploads of other slots may overlap.
// Submit excludes everything else. Results that arrive after Close are dropped.
type Coordinator struct {
	backend     domain.Backend
	transitions domain.TransitionValidator
	rules       domain.FieldValidator
	agent       domain.User

	mu         sync.Mutex
	state      State
	savedDraft domain.Draft
	saving     bool
	submitting bool
	uploading  map[domain.DocumentSlot]bool
	closed     bool
}

// NewCoordinator returns a coordinator in the Unsaved state.
func NewCoordinator(backend domain.Backend, transitions domain.TransitionValidator, rules domain.FieldValidator, agent domain.User) *Coordinator {
	return &Coordinator{
		backend:     backend,
		transitions: transitions,
		rules:       rules,
		agent:       agent,
		state:       Unsaved{},
		uploading:   make(map[domain.DocumentSlot]bool),
	}
}

// Resume returns a coordinator for an application the backend already holds.
func Resume(backend domain.Backend, transitions domain.TransitionValidator, rules domain.FieldValidator, agent domain.User, app domain.Application) *Coordinator {
	c := NewCoordinator(backend, transitions, rules, agent)
	c.state = Saved{ID: app.ID, Status: app.Status}
	c.savedDraft = domain.NewDraft()
	c.savedDraft.Merge(app.Fields)
	return c
}

// State returns the current submission state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CanSubmit reports whether a draft id exists and nothing was submitted yet.
func (c *Coordinator) CanSubmit() bool {
	_, ok := c.State().(Saved)
	return ok
}

// ApplicationID returns the established id, or "" while Unsaved.
func (c *Coordinator) ApplicationID() string {
	switch s := c.State().(type) {
	case Saved:
		return s.ID
	case Submitted:
		return s.ID
	default:
		return ""
	}
}

// begin claims the save slot, or for submit the whole coordinator.
func (c *Coordinator) begin(submit bool) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrWizardNotFound
	}
	if c.saving || c.submitting || (submit && len(c.uploading) > 0) {
		return nil, domain.ErrRequestInFlight
	}
	c.saving = true
	c.submitting = submit
	return c.state, nil
}

// end releases the save slot and applies fn unless the wizard was closed.
func (c *Coordinator) end(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	c.submitting = false
	if !c.closed && fn != nil {
		fn()
	}
}

// beginUpload claims every slot of files. It fails without claiming any when
// one of them is already uploading or a submit is running.
func (c *Coordinator) beginUpload(files []StagedFile) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrWizardNotFound
	}
	if c.submitting {
		return nil, domain.ErrRequestInFlight
	}
	for _, f := range files {
		if c.uploading[f.Slot] {
			return nil, domain.ErrRequestInFlight
		}
	}
	for _, f := range files {
		c.uploading[f.Slot] = true
	}
	return c.state, nil
}

func (c *Coordinator) endUpload(files []StagedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range files {
		delete(c.uploading, f.Slot)
	}
}

// SaveDraft upserts draft and establishes the application id on first success.
func (c *Coordinator) SaveDraft(ctx context.Context, draft domain.Draft) (string, error) {
	st, err := c.begin(false)
	if err != nil {
		return "", err
	}

	id, status, err := c.save(ctx, st, draft)
	if err != nil {
		c.end(nil)
		return "", err
	}

	c.end(func() {
		c.state = Saved{ID: id, Status: status}
		c.savedDraft = draft.Clone()
	})
	return id, nil
}

func (c *Coordinator) save(ctx context.Context, st State, draft domain.Draft) (string, domain.Status, error) {
	var knownID string
	status := domain.StatusDraft
	switch s := st.(type) {
	case Submitted:
		return "", "", domain.ErrAlreadySubmitted
	case Saved:
		knownID, status = s.ID, s.Status
	}

	id, err := c.backend.SaveDraft(ctx, domain.DraftUpsert{
		ApplicationID: knownID,
		AgentID:       c.agent.ID,
		AgentName:     c.agent.Name,
		Fields:        draft,
	})
	if err != nil {
		return "", "", fmt.Errorf("saving draft: %w", err)
	}
	if knownID != "" {
		id = knownID
	}
	return id, status, nil
}

// Upload sends files to the backend concurrently and returns the ones that
// were accepted. Failed files are left for a manual retry.
func (c *Coordinator) Upload(ctx context.Context, files []StagedFile) ([]StagedFile, error) {
	st, err := c.beginUpload(files)
	if err != nil {
		return nil, err
	}
	defer c.endUpload(files)

	var id string
	switch s := st.(type) {
	case Unsaved:
		return nil, domain.ErrDraftNotSaved
	case Submitted:
		return nil, domain.ErrAlreadySubmitted
	case Saved:
		id = s.ID
	}

	var (
		mu       sync.Mutex
		uploaded []StagedFile
		g        errgroup.Group
	)
	g.SetLimit(uploadConcurrency)
	for _, f := range files {
		g.Go(func() error {
			docType, _ := f.Slot.DocumentType()
			err := c.backend.UploadDocument(ctx, domain.DocumentUpload{
				ApplicationID: id,
				Type:          docType,
				FileName:      f.Name,
				MimeType:      f.MimeType,
				Size:          f.Size,
				Content:       f.Content(),
			})
			if err != nil {
				return fmt.Errorf("uploading %s: %w", f.Slot, err)
			}
			mu.Lock()
			uploaded = append(uploaded, f)
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	return uploaded, err
}

// Submit validates draft and sends the application for review. Edits made
// since the last save are upserted first under the same id.
func (c *Coordinator) Submit(ctx context.Context, draft domain.Draft) (domain.Application, error) {
	st, err := c.begin(true)
	if err != nil {
		return domain.Application{}, err
	}

	var saved Saved
	switch s := st.(type) {
	case Unsaved:
		c.end(nil)
		return domain.Application{}, domain.ErrDraftNotSaved
	case Submitted:
		c.end(nil)
		return domain.Application{}, domain.ErrAlreadySubmitted
	case Saved:
		saved = s
	}

	if err := c.rules.ValidateDraft(draft); err != nil {
		c.end(nil)
		return domain.Application{}, err
	}
	if _, err := c.transitions.Apply(ctx, saved.Status, domain.SubmitEvent(saved.Status)); err != nil {
		c.end(nil)
		return domain.Application{}, err
	}

	c.mu.Lock()
	dirty := !maps.Equal(c.savedDraft, draft)
	c.mu.Unlock()
	if dirty {
		if _, _, err := c.save(ctx, saved, draft); err != nil {
			c.end(nil)
			return domain.Application{}, err
		}
		c.mu.Lock()
		c.savedDraft = draft.Clone()
		c.mu.Unlock()
	}

	app, err := c.backend.Submit(ctx, saved.ID)
	if err != nil {
		c.end(nil)
		return domain.Application{}, fmt.Errorf("submitting application: %w", err)
	}

	c.end(func() {
		c.state = Submitted{ID: saved.ID, Status: app.Status}
	})
	return app, nil
}

// Close marks the coordinator as torn down; later results are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

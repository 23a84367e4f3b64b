package wizard

import (
	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// Controller tracks the current stage and the draft values of one form.
// It is not safe for concurrent use.
type Controller struct {
	current int
	draft   domain.Draft
	files   *FileStore
	rules   domain.FieldValidator
}

// NewController starts at stage 1 with an empty draft.
func NewController(rules domain.FieldValidator, files *FileStore) *Controller {
	return &Controller{
		current: 1,
		draft:   domain.NewDraft(),
		files:   files,
		rules:   rules,
	}
}

// Current returns the id of the stage on screen.
func (c *Controller) Current() int { return c.current }

// Draft returns a copy of the field values.
func (c *Controller) Draft() domain.Draft { return c.draft.Clone() }

// Load replaces the draft with values from an existing application.
func (c *Controller) Load(fields domain.Draft) {
	c.draft = domain.NewDraft()
	c.draft.Merge(fields)
}

// SetField stores value and returns the inline message for it, if any.
// The value is kept even when it fails its rule.
func (c *Controller) SetField(name domain.FieldName, value string) (*domain.FieldError, error) {
	if _, ok := domain.LookupField(name); !ok {
		return nil, &domain.UnknownFieldError{Field: string(name)}
	}
	c.draft[name] = value
	return c.rules.ValidateField(name, value), nil
}

// IsStageComplete reports whether every required field of stage id holds a
// non-blank value. The document stage is complete once any file is staged.
func (c *Controller) IsStageComplete(id int) bool {
	st, ok := domain.StageByID(id)
	if !ok {
		return false
	}
	if st.Kind == domain.StageKindDocuments {
		return c.files.Len() > 0
	}
	for _, name := range st.RequiredFields() {
		if !c.draft.Filled(name) {
			return false
		}
	}
	return true
}

// Missing lists the labels of what keeps stage id from completing.
func (c *Controller) Missing(id int) []string {
	st, ok := domain.StageByID(id)
	if !ok || c.IsStageComplete(id) {
		return nil
	}
	if st.Kind == domain.StageKindDocuments {
		return []string{"at least one document"}
	}
	var out []string
	for _, name := range st.RequiredFields() {
		if !c.draft.Filled(name) {
			f, _ := domain.LookupField(name)
			out = append(out, f.Label)
		}
	}
	return out
}

// Next advances one stage. An incomplete stage blocks with an
// *domain.IncompleteStageError; the last stage is a no-op.
func (c *Controller) Next() error {
	if !c.IsStageComplete(c.current) {
		return &domain.IncompleteStageError{Stage: c.current, Missing: c.Missing(c.current)}
	}
	if c.current < len(domain.Stages) {
		c.current++
	}
	return nil
}

// Prev goes back one stage, stopping at 1.
func (c *Controller) Prev() {
	if c.current > 1 {
		c.current--
	}
}

// JumpTo moves to any stage regardless of completion.
func (c *Controller) JumpTo(id int) error {
	if _, ok := domain.StageByID(id); !ok {
		return &domain.StageRangeError{Stage: id, Max: len(domain.Stages)}
	}
	c.current = id
	return nil
}

// Progress returns the share of stages reached, as a percentage.
func (c *Controller) Progress() float64 {
	return float64(c.current) / float64(len(domain.Stages)) * 100
}

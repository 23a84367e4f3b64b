package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrWizardNotFound      = errors.New("wizard not found")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrDraftNotSaved       = errors.New("save the draft before continuing")
	ErrAlreadySubmitted    = errors.New("application already submitted")
	ErrRequestInFlight     = errors.New("a request for this application is already in progress")
	ErrFileNotStaged       = errors.New("no file staged for this slot")
	ErrPreviewNotFound     = errors.New("preview not found")
	ErrNotEditable         = errors.New("application cannot be edited in its current status")
)

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   FieldName
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects field failures found in one pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// IncompleteStageError is returned when forward navigation is blocked.
type IncompleteStageError struct {
	Stage   int
	Missing []string
}

func (e *IncompleteStageError) Error() string {
	return fmt.Sprintf("stage %d is incomplete: please fill all required fields (%s)",
		e.Stage, strings.Join(e.Missing, ", "))
}

// StageRangeError is returned for a stage id outside 1..N.
type StageRangeError struct {
	Stage int
	Max   int
}

func (e *StageRangeError) Error() string {
	return fmt.Sprintf("stage %d is out of range 1..%d", e.Stage, e.Max)
}

// UploadRejectedError is returned when a file cannot be staged.
type UploadRejectedError struct {
	Slot   DocumentSlot
	Reason string
}

func (e *UploadRejectedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Slot, e.Reason)
}

// UnknownFieldError is returned for a field name outside the catalogue.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

// UnknownSlotError is returned for a document slot outside the catalogue.
type UnknownSlotError struct {
	Slot string
}

func (e *UnknownSlotError) Error() string {
	return fmt.Sprintf("unknown document slot %q", e.Slot)
}

// UnknownRoleError is returned for a role outside AGENT, APPROVER, MONITOR.
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", e.Role)
}

// AccessError is returned when the caller's role is not allowed.
type AccessError struct {
	Role    Role
	Allowed []Role
}

func (e *AccessError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, r := range e.Allowed {
		allowed[i] = string(r)
	}
	return fmt.Sprintf("access restricted: role %q is not one of [%s]", e.Role, strings.Join(allowed, ", "))
}

// BackendError reports a failed call to the onboarding backend.
type BackendError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("backend %s failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("backend %s failed with status %d: %s", e.Op, e.StatusCode, e.Message)
}

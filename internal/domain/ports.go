package domain

import (
	"context"
	"io"
	"time"
)

// ListFilter holds optional criteria for listing applications.
// Statuses and Query are evaluated by the backend; the rest are applied locally.
type ListFilter struct {
	Statuses []Status
	Query    string
	DateFrom time.Time
	DateTo   time.Time
	Agent    string
	City     string
	Limit    int
	Offset   int
}

// DraftUpsert is the payload of a draft save.
type DraftUpsert struct {
	ApplicationID string
	AgentID       string
	AgentName     string
	Fields        Draft
}

// DocumentUpload is one file sent to the backend.
type DocumentUpload struct {
	ApplicationID string
	Type          DocumentType
	FileName      string
	MimeType      string
	Size          int64
	Content       io.Reader
}

// Rejection carries the approver's reasons.
type Rejection struct {
	Reason  string
	Comment string
}

// Backend is the contract of the remote onboarding backend.
type Backend interface {
	SaveDraft(ctx context.Context, draft DraftUpsert) (string, error)
	UploadDocument(ctx context.Context, upload DocumentUpload) error
	Submit(ctx context.Context, id string) (Application, error)
	List(ctx context.Context, filter ListFilter) ([]Application, error)
	Get(ctx context.Context, id string) (Application, error)
	Documents(ctx context.Context, id string) (map[DocumentType]string, error)
	Approve(ctx context.Context, id string) (QRInfo, error)
	Reject(ctx context.Context, id string, rejection Rejection) (Application, error)
	SetDiscrepancy(ctx context.Context, id string, items []DiscrepancyItem, comment string) (Application, error)
	QR(ctx context.Context, id string) (QRInfo, error)
	MetricsOverview(ctx context.Context) (MetricsOverview, error)
	RegisterAgent(ctx context.Context, reg AgentRegistration) error
}

// ApplicationRepository persists application records for the local backend.
type ApplicationRepository interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	List(ctx context.Context, filter ListFilter) ([]Application, error)
	Update(ctx context.Context, app Application) error
	Count(ctx context.Context) (int, error)
}

// SessionStore persists the authenticated user of each login session.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, user User) error
	Load(ctx context.Context, sessionID string) (User, error)
	Delete(ctx context.Context, sessionID string) error
}

// EventPublisher defines the contract for emitting application events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, app Application, actor User) error
}

// TransitionValidator checks lifecycle events against the status machine.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
	Available(current Status) []Event
}

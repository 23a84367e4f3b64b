package domain

import "time"

// Status represents the lifecycle state of a merchant application.
// The remote backend owns it; this service only reflects it.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusSubmitted   Status = "SUBMITTED"
	StatusDiscrepancy Status = "DISCREPANCY"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusDiscrepancy,
	StatusApproved,
	StatusRejected,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Event represents an action that requests a state transition.
type Event string

const (
	EventSubmit          Event = "submit"
	EventResubmit        Event = "resubmit"
	EventApprove         Event = "approve"
	EventReject          Event = "reject"
	EventFlagDiscrepancy Event = "flag_discrepancy"

	// Recorded for the activity stream; these never change status.
	EventDraftSaved       Event = "draft_saved"
	EventDocumentUploaded Event = "document_uploaded"
)

// Transition defines a valid state change: an event moves an application from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the application lifecycle.
// APPROVED and REJECTED are terminal.
var Transitions = []Transition{
	{Event: EventSubmit, Src: StatusDraft, Dst: StatusSubmitted},
	{Event: EventApprove, Src: StatusSubmitted, Dst: StatusApproved},
	{Event: EventReject, Src: StatusSubmitted, Dst: StatusRejected},
	{Event: EventFlagDiscrepancy, Src: StatusSubmitted, Dst: StatusDiscrepancy},
	{Event: EventResubmit, Src: StatusDiscrepancy, Dst: StatusSubmitted},
}

// Actor is the role that may request e, or "" for recorded-only events.
func (e Event) Actor() Role {
	switch e {
	case EventSubmit, EventResubmit:
		return RoleAgent
	case EventApprove, EventReject, EventFlagDiscrepancy:
		return RoleApprover
	}
	return ""
}

// SubmitEvent returns the event that sends an application in status s to review.
func SubmitEvent(s Status) Event {
	if s == StatusDiscrepancy {
		return EventResubmit
	}
	return EventSubmit
}

// Editable reports whether an agent may reopen an application in the wizard.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusDiscrepancy
}

// DiscrepancyItem is one reviewer-flagged issue returned to the agent.
type DiscrepancyItem struct {
	Code     string
	Message  string
	Resolved bool
}

// DiscrepancyCodes is the catalogue offered to reviewers.
var DiscrepancyCodes = []DiscrepancyItem{
	{Code: "DOC_QUALITY", Message: "Document image quality is poor or unclear"},
	{Code: "DOC_MISMATCH", Message: "Document details do not match application data"},
	{Code: "MISSING_DOC", Message: "Required document is missing"},
	{Code: "INVALID_PAN", Message: "PAN format or details are invalid"},
	{Code: "ADDRESS_UNCLEAR", Message: "Business address is unclear or incomplete"},
	{Code: "CONTACT_INVALID", Message: "Contact information could not be verified"},
	{Code: "BUSINESS_VERIFICATION", Message: "Business details require additional verification"},
}

// CustomDiscrepancyCode tags free-text discrepancy items.
const CustomDiscrepancyCode = "CUSTOM"

// Document is a file the backend holds for an application.
type Document struct {
	Type DocumentType
	Name string
	Size int64
	URL  string
}

// Application is the backend's merchant application record.
type Application struct {
	ID               string
	Status           Status
	Fields           Draft
	AgentName        string
	Documents        []Document
	DiscrepancyItems []DiscrepancyItem
	RejectionReason  string
	RejectionComment string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewApplication creates an application in the initial DRAFT state.
func NewApplication(id, agentName string, fields Draft) Application {
	now := time.Now().UTC()
	return Application{
		ID:        id,
		Status:    StatusDraft,
		Fields:    fields.Clone(),
		AgentName: agentName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// QRInfo identifies the payment address issued to an approved merchant.
type QRInfo struct {
	VPA      string
	Payload  string
	ImageURL string
}

// DailyStat is one day of submission activity.
type DailyStat struct {
	Date        string
	Submissions int
	Approvals   int
}

// AgentStat summarises one agent's pipeline.
type AgentStat struct {
	AgentName       string
	Submitted       int
	Approved        int
	DiscrepancyRate float64
}

// MetricsOverview is the dashboard summary precomputed by the backend.
type MetricsOverview struct {
	Total            int
	Draft            int
	Submitted        int
	Discrepancy      int
	Approved         int
	Rejected         int
	DailyStats       []DailyStat
	AgentLeaderboard []AgentStat
}

// AgentRegistration is a monitor's request to onboard a new field agent.
type AgentRegistration struct {
	AgentName    string
	MobileNumber string
	Email        string
	Branch       string
	Division     string
	SubDivision  string
}

package http

import (
	"time"

	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/wizard"
)

// DocumentResponse is a file the backend holds for an application.
type DocumentResponse struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url,omitempty"`
}

// DiscrepancyResponse is one reviewer-flagged issue.
type DiscrepancyResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Resolved bool   `json:"resolved"`
}

// ApplicationResponse is the API representation of an application.
type ApplicationResponse struct {
	ID               string                `json:"id" doc:"Backend application id"`
	Status           string                `json:"status" doc:"Lifecycle state"`
	Fields           map[string]string     `json:"fields" doc:"Form values by field name"`
	AgentName        string                `json:"agent_name"`
	Documents        []DocumentResponse    `json:"documents,omitempty"`
	DiscrepancyItems []DiscrepancyResponse `json:"discrepancy_items,omitempty"`
	RejectionReason  string                `json:"rejection_reason,omitempty"`
	RejectionComment string                `json:"rejection_comment,omitempty"`
	CreatedAt        string                `json:"created_at,omitempty" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt        string                `json:"updated_at,omitempty" doc:"Last update timestamp (ISO 8601)"`
	Actions          []string              `json:"actions,omitempty" doc:"Lifecycle actions the caller may request"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toFieldMap(d domain.Draft) map[string]string {
	out := make(map[string]string, len(d))
	for k, v := range d {
		out[string(k)] = v
	}
	return out
}

func toApplicationResponse(a domain.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:               a.ID,
		Status:           string(a.Status),
		Fields:           toFieldMap(a.Fields),
		AgentName:        a.AgentName,
		RejectionReason:  a.RejectionReason,
		RejectionComment: a.RejectionComment,
		CreatedAt:        formatTime(a.CreatedAt),
		UpdatedAt:        formatTime(a.UpdatedAt),
	}
	for _, d := range a.Documents {
		resp.Documents = append(resp.Documents, DocumentResponse{Type: string(d.Type), Name: d.Name, Size: d.Size, URL: d.URL})
	}
	for _, it := range a.DiscrepancyItems {
		resp.DiscrepancyItems = append(resp.DiscrepancyItems, DiscrepancyResponse{Code: it.Code, Message: it.Message, Resolved: it.Resolved})
	}
	return resp
}

func toApplicationResponses(apps []domain.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, len(apps))
	for i, a := range apps {
		out[i] = toApplicationResponse(a)
	}
	return out
}

// QRResponse identifies the payment address of an approved merchant.
type QRResponse struct {
	VPA      string `json:"vpa"`
	Payload  string `json:"qr_payload"`
	ImageURL string `json:"qr_image_url"`
}

func toQRResponse(q domain.QRInfo) QRResponse {
	return QRResponse{VPA: q.VPA, Payload: q.Payload, ImageURL: q.ImageURL}
}

// StageResponse summarises one wizard stage.
type StageResponse struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Complete bool   `json:"complete"`
}

// StagedFileResponse is a file held in a wizard slot.
type StagedFileResponse struct {
	Slot       string `json:"slot"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mime_type"`
	PreviewURL string `json:"preview_url"`
	Uploaded   bool   `json:"uploaded"`
}

func toStagedFileResponse(f wizard.StagedFile) StagedFileResponse {
	return StagedFileResponse{
		Slot:       string(f.Slot),
		Name:       f.Name,
		Size:       f.Size,
		MimeType:   f.MimeType,
		PreviewURL: "/api/v1/previews/" + string(f.Preview),
		Uploaded:   f.Uploaded,
	}
}

func toStagedFileResponses(files []wizard.StagedFile) []StagedFileResponse {
	out := make([]StagedFileResponse, len(files))
	for i, f := range files {
		out[i] = toStagedFileResponse(f)
	}
	return out
}

// WizardResponse is a snapshot of the caller's onboarding wizard.
type WizardResponse struct {
	ID            string               `json:"id"`
	Current       int                  `json:"current" doc:"Current stage, 1-based"`
	Progress      float64              `json:"progress" doc:"Percentage of stages complete"`
	Stages        []StageResponse      `json:"stages"`
	Fields        map[string]string    `json:"fields"`
	Files         []StagedFileResponse `json:"files"`
	State         string               `json:"state" enum:"unsaved,saved,submitted"`
	ApplicationID string               `json:"application_id,omitempty"`
	CanSubmit     bool                 `json:"can_submit"`
}

func stateName(s wizard.State) string {
	switch s.(type) {
	case wizard.Saved:
		return "saved"
	case wizard.Submitted:
		return "submitted"
	default:
		return "unsaved"
	}
}

func toWizardResponse(v wizard.View) WizardResponse {
	stages := make([]StageResponse, len(v.Stages))
	for i, s := range v.Stages {
		stages[i] = StageResponse{ID: s.ID, Title: s.Title, Complete: s.Complete}
	}
	return WizardResponse{
		ID:            v.ID,
		Current:       v.Current,
		Progress:      v.Progress,
		Stages:        stages,
		Fields:        toFieldMap(v.Draft),
		Files:         toStagedFileResponses(v.Files),
		State:         stateName(v.State),
		ApplicationID: v.ApplicationID,
		CanSubmit:     v.CanSubmit,
	}
}

// MetricsResponse is the monitor dashboard summary.
type MetricsResponse struct {
	Total            int                 `json:"total"`
	Draft            int                 `json:"draft"`
	Submitted        int                 `json:"submitted"`
	Discrepancy      int                 `json:"discrepancy"`
	Approved         int                 `json:"approved"`
	Rejected         int                 `json:"rejected"`
	DailyStats       []DailyStatResponse `json:"daily_stats"`
	AgentLeaderboard []AgentStatResponse `json:"agent_leaderboard"`
}

type DailyStatResponse struct {
	Date        string `json:"date"`
	Submissions int    `json:"submissions"`
	Approvals   int    `json:"approvals"`
}

type AgentStatResponse struct {
	AgentName       string  `json:"agent_name"`
	Submitted       int     `json:"submitted"`
	Approved        int     `json:"approved"`
	DiscrepancyRate float64 `json:"discrepancy_rate"`
}

func toMetricsResponse(m domain.MetricsOverview) MetricsResponse {
	resp := MetricsResponse{
		Total:            m.Total,
		Draft:            m.Draft,
		Submitted:        m.Submitted,
		Discrepancy:      m.Discrepancy,
		Approved:         m.Approved,
		Rejected:         m.Rejected,
		DailyStats:       make([]DailyStatResponse, len(m.DailyStats)),
		AgentLeaderboard: make([]AgentStatResponse, len(m.AgentLeaderboard)),
	}
	for i, d := range m.DailyStats {
		resp.DailyStats[i] = DailyStatResponse{Date: d.Date, Submissions: d.Submissions, Approvals: d.Approvals}
	}
	for i, a := range m.AgentLeaderboard {
		resp.AgentLeaderboard[i] = AgentStatResponse{
			AgentName:       a.AgentName,
			Submitted:       a.Submitted,
			Approved:        a.Approved,
			DiscrepancyRate: a.DiscrepancyRate,
		}
	}
	return resp
}

package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// applicationDTO is the backend's application record. Form values sit at the
// top level under their wire names next to these metadata keys.
type applicationDTO struct {
	ID               json.RawMessage  `json:"id"`
	Status           string           `json:"status"`
	AgentName        string           `json:"agentName"`
	Docs             []documentDTO    `json:"docs"`
	DiscrepancyItems []discrepancyDTO `json:"discrepancyItems"`
	RejectionReason  string           `json:"rejectionReason"`
	RejectionComment string           `json:"rejectionComment"`
	CreatedAt        string           `json:"createdAt"`
	UpdatedAt        string           `json:"updatedAt"`
}

type documentDTO struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url,omitempty"`
}

type discrepancyDTO struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Resolved bool   `json:"resolved,omitempty"`
}

// application decodes one record, accepting string or numeric id and field values.
type application struct {
	domain.Application
}

func (a *application) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var dto applicationDTO
	if err := json.Unmarshal(b, &dto); err != nil {
		return err
	}
	// Some deployments send numeric ids.
	id, err := scalar(dto.ID)
	if err != nil {
		return fmt.Errorf("decoding id: %w", err)
	}

	fields := domain.NewDraft()
	for _, f := range domain.Fields {
		v, ok := raw[f.Wire]
		if !ok {
			continue
		}
		s, err := scalar(v)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", f.Wire, err)
		}
		fields[f.Name] = s
	}

	a.Application = domain.Application{
		ID:               id,
		Status:           domain.Status(dto.Status),
		Fields:           fields,
		AgentName:        dto.AgentName,
		RejectionReason:  dto.RejectionReason,
		RejectionComment: dto.RejectionComment,
		CreatedAt:        parseTime(dto.CreatedAt),
		UpdatedAt:        parseTime(dto.UpdatedAt),
	}
	for _, d := range dto.Docs {
		a.Documents = append(a.Documents, domain.Document{Type: domain.DocumentType(d.Type), Name: d.Name, Size: d.Size, URL: d.URL})
	}
	for _, it := range dto.DiscrepancyItems {
		a.DiscrepancyItems = append(a.DiscrepancyItems, domain.DiscrepancyItem{Code: it.Code, Message: it.Message, Resolved: it.Resolved})
	}
	return nil
}

// scalar renders a JSON string, number, bool or null as a string.
func scalar(v json.RawMessage) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return "", err
	}
	switch t := x.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("unexpected JSON value %s", v)
	}
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// draftPayload flattens a draft to wire names; every field is sent.
func draftPayload(d domain.Draft) map[string]string {
	out := make(map[string]string, len(domain.Fields))
	for _, f := range domain.Fields {
		out[f.Wire] = d.Get(f.Name)
	}
	return out
}

type draftResponse struct {
	ApplicationID json.RawMessage `json:"applicationId"`
}

type qrDTO struct {
	VPA        string `json:"vpa"`
	QRPayload  string `json:"qrPayload"`
	QRImageURL string `json:"qrImageUrl"`
}

func (q qrDTO) toDomain() domain.QRInfo {
	return domain.QRInfo{VPA: q.VPA, Payload: q.QRPayload, ImageURL: q.QRImageURL}
}

type rejectRequest struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment"`
	Status  string `json:"status"`
}

type discrepancyRequest struct {
	Items   []discrepancyDTO `json:"items"`
	Comment string           `json:"comment,omitempty"`
}

type metricsDTO struct {
	Total       int `json:"total"`
	Draft       int `json:"draft"`
	Submitted   int `json:"submitted"`
	Discrepancy int `json:"discrepancy"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	DailyStats  []struct {
		Date        string `json:"date"`
		Submissions int    `json:"submissions"`
		Approvals   int    `json:"approvals"`
	} `json:"dailyStats"`
	AgentLeaderboard []struct {
		AgentName       string  `json:"agentName"`
		Submitted       int     `json:"submitted"`
		Approved        int     `json:"approved"`
		DiscrepancyRate float64 `json:"discrepancyRate"`
	} `json:"agentLeaderboard"`
}

func (m metricsDTO) toDomain() domain.MetricsOverview {
	out := domain.MetricsOverview{
		Total:       m.Total,
		Draft:       m.Draft,
		Submitted:   m.Submitted,
		Discrepancy: m.Discrepancy,
		Approved:    m.Approved,
		Rejected:    m.Rejected,
	}
	for _, d := range m.DailyStats {
		out.DailyStats = append(out.DailyStats, domain.DailyStat{Date: d.Date, Submissions: d.Submissions, Approvals: d.Approvals})
	}
	for _, a := range m.AgentLeaderboard {
		out.AgentLeaderboard = append(out.AgentLeaderboard, domain.AgentStat{
			AgentName: a.AgentName, Submitted: a.Submitted, Approved: a.Approved, DiscrepancyRate: a.DiscrepancyRate,
		})
	}
	return out
}

type registrationDTO struct {
	AgentName    string `json:"agentName"`
	MobileNumber string `json:"mobileNumber"`
	Email        string `json:"email"`
	Branch       string `json:"branch,omitempty"`
	Division     string `json:"division,omitempty"`
	SubDivision  string `json:"subDivision,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

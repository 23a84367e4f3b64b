package domain_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

func TestNewApplication(t *testing.T) {
	fields := domain.Draft{domain.FieldFirm: "Acme Traders"}

	before := time.Now().UTC()
	app := domain.NewApplication("app-1", "Agent User", fields)
	after := time.Now().UTC()

	if app.ID != "app-1" {
		t.Errorf("ID = %q, want %q", app.ID, "app-1")
	}
	if app.Status != domain.StatusDraft {
		t.Errorf("Status = %q, want %q", app.Status, domain.StatusDraft)
	}
	if app.AgentName != "Agent User" {
		t.Errorf("AgentName = %q, want %q", app.AgentName, "Agent User")
	}
	if app.CreatedAt.Before(before) || app.CreatedAt.After(after) {
		t.Errorf("CreatedAt = %v, want between %v and %v", app.CreatedAt, before, after)
	}
	if app.UpdatedAt != app.CreatedAt {
		t.Errorf("UpdatedAt should equal CreatedAt on new application")
	}

	fields[domain.FieldFirm] = "changed"
	if app.Fields.Get(domain.FieldFirm) != "Acme Traders" {
		t.Errorf("application fields share storage with the caller's draft")
	}
}

func TestTransitions_ValidPaths(t *testing.T) {
	cases := []struct {
		event domain.Event
		src   domain.Status
		dst   domain.Status
	}{
		{domain.EventSubmit, domain.StatusDraft, domain.StatusSubmitted},
		{domain.EventApprove, domain.StatusSubmitted, domain.StatusApproved},
		{domain.EventReject, domain.StatusSubmitted, domain.StatusRejected},
		{domain.EventFlagDiscrepancy, domain.StatusSubmitted, domain.StatusDiscrepancy},
		{domain.EventResubmit, domain.StatusDiscrepancy, domain.StatusSubmitted},
	}

	for _, tc := range cases {
		found := false
		for _, tr := range domain.Transitions {
			if tr.Event == tc.event && tr.Src == tc.src && tr.Dst == tc.dst {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing transition: %q from %q to %q", tc.event, tc.src, tc.dst)
		}
	}
}

func TestTransitions_TerminalStates(t *testing.T) {
	for _, tr := range domain.Transitions {
		if tr.Src == domain.StatusApproved || tr.Src == domain.StatusRejected {
			t.Errorf("unexpected transition %q out of terminal state %q", tr.Event, tr.Src)
		}
	}
}

func TestSubmitEvent(t *testing.T) {
	if got := domain.SubmitEvent(domain.StatusDraft); got != domain.EventSubmit {
		t.Errorf("SubmitEvent(DRAFT) = %q, want %q", got, domain.EventSubmit)
	}
	if got := domain.SubmitEvent(domain.StatusDiscrepancy); got != domain.EventResubmit {
		t.Errorf("SubmitEvent(DISCREPANCY) = %q, want %q", got, domain.EventResubmit)
	}
}

func TestStatus_Editable(t *testing.T) {
	want := map[domain.Status]bool{
		domain.StatusDraft:       true,
		domain.StatusDiscrepancy: true,
		domain.StatusSubmitted:   false,
		domain.StatusApproved:    false,
		domain.StatusRejected:    false,
	}
	for s, editable := range want {
		if s.Editable() != editable {
			t.Errorf("%q.Editable() = %v, want %v", s, s.Editable(), editable)
		}
	}
	if domain.Status("ARCHIVED").Valid() {
		t.Error("unknown status reported as valid")
	}
}

func TestEvent_Actor(t *testing.T) {
	tests := map[domain.Event]domain.Role{
		domain.EventSubmit:          domain.RoleAgent,
		domain.EventResubmit:        domain.RoleAgent,
		domain.EventApprove:         domain.RoleApprover,
		domain.EventReject:          domain.RoleApprover,
		domain.EventFlagDiscrepancy: domain.RoleApprover,
		domain.EventDraftSaved:      "",
	}
	for e, want := range tests {
		if got := e.Actor(); got != want {
			t.Errorf("%s.Actor() = %q, want %q", e, got, want)
		}
	}
}

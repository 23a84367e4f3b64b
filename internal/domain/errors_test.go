package domain_test

import (
	"strings"
	"testing"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&domain.TransitionError{Event: domain.EventApprove, Current: domain.StatusDraft}, `event "approve" is not valid from state "DRAFT"`},
		{&domain.FieldError{Field: domain.FieldPAN, Message: "Invalid PAN format"}, "pan: Invalid PAN format"},
		{&domain.StageRangeError{Stage: 9, Max: 7}, "stage 9 is out of range 1..7"},
		{&domain.BackendError{Op: "submit", StatusCode: 500, Message: "boom"}, "backend submit failed with status 500: boom"},
		{&domain.BackendError{Op: "submit", Message: "connection refused"}, "backend submit failed: connection refused"},
		{&domain.AccessError{Role: domain.RoleAgent, Allowed: []domain.Role{domain.RoleApprover}}, `access restricted: role "AGENT" is not one of [APPROVER]`},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestValidationError_ListsEveryField(t *testing.T) {
	err := &domain.ValidationError{Fields: []domain.FieldError{
		{Field: domain.FieldMobile, Message: "Mobile must be 10 digits"},
		{Field: domain.FieldInstPincode, Message: "Pincode must be 6 digits"},
	}}
	msg := err.Error()
	for _, want := range []string{"mobile", "inst_pincode"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

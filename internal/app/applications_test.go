package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/adapter/rules"
	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/domain"
)

func TestApplications_ListForwardsOnlyBackendCriteria(t *testing.T) {
	now := time.Now().UTC()
	b := newMockBackend(
		submittedApp("a1", "Agent User", "Mumbai", now),
		submittedApp("a2", "Agent User", "Mumbai", now),
		submittedApp("a3", "Agent User", "Mumbai", now),
	)
	svc := app.NewApplicationService(b, rules.New())

	got, err := svc.List(context.Background(), domain.ListFilter{Query: "Acme", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("page size = %d, want 2", len(got))
	}
	if b.lastFilter.Limit != 0 || b.lastFilter.Offset != 0 || b.lastFilter.Query != "Acme" {
		t.Errorf("backend filter = %+v", b.lastFilter)
	}

	got, _ = svc.List(context.Background(), domain.ListFilter{Offset: 10})
	if len(got) != 0 {
		t.Errorf("offset past end = %d items", len(got))
	}
}

func TestApplications_GetAttachesDocuments(t *testing.T) {
	b := newMockBackend(submittedApp("a1", "Agent User", "Mumbai", time.Now()))
	b.docs["a1"] = map[domain.DocumentType]string{
		domain.DocumentShopPhoto: "https://files.example/shop.png",
		domain.DocumentPAN:       "https://files.example/pan.pdf",
	}
	svc := app.NewApplicationService(b, rules.New())

	got, err := svc.Get(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Documents) != 2 || got.Documents[0].Type != domain.DocumentPAN {
		t.Errorf("documents = %+v", got.Documents)
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Errorf("Get(missing) = %v", err)
	}
}

func TestApplications_RegisterAgent(t *testing.T) {
	b := newMockBackend()
	svc := app.NewApplicationService(b, rules.New())
	ctx := context.Background()

	err := svc.RegisterAgent(ctx, domain.AgentRegistration{AgentName: " ", MobileNumber: "123", Email: "nope"})
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(valErr.Fields) != 3 {
		t.Errorf("failures = %+v", valErr.Fields)
	}

	reg := domain.AgentRegistration{AgentName: "Priya Shah", MobileNumber: "9876543210", Email: "priya@example.com", Branch: "Fort"}
	if err := svc.RegisterAgent(ctx, reg); err != nil {
		t.Fatalf("RegisterAgent: %v", err)
	}
	if len(b.registered) != 1 || b.registered[0].Branch != "Fort" {
		t.Errorf("registered = %+v", b.registered)
	}
}

package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/neomorfeo/merchantdesk/internal/adapter/backend"
	"github.com/neomorfeo/merchantdesk/internal/domain"
)

func newClient(t *testing.T, mux *http.ServeMux) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return backend.New(backend.Options{BaseURL: srv.URL + "/", Timeout: 5 * time.Second, RateLimit: 100, Burst: 10})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClient_SaveDraft(t *testing.T) {
	var got map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/agents/{agentId}/saveApplicationDraft", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("agentId") != "user_agent" {
			t.Errorf("agentId = %q", r.PathValue("agentId"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{"applicationId": 1234})
	})
	c := newClient(t, mux)

	draft := domain.NewDraft()
	draft[domain.FieldApplName] = "Asha"
	draft[domain.FieldIFSC] = "HDFC0001234"

	id, err := c.SaveDraft(context.Background(), domain.DraftUpsert{AgentID: "user_agent", Fields: draft})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if id != "1234" {
		t.Errorf("id = %q, want %q", id, "1234")
	}
	if got["applName"] != "Asha" || got["meIfsc"] != "HDFC0001234" {
		t.Errorf("payload = %v", got)
	}
	if _, ok := got["qrBoombox"]; !ok {
		t.Error("payload should carry every field, qrBoombox missing")
	}
	if _, ok := got["applicationId"]; ok {
		t.Error("first save should not send an applicationId")
	}
}

func TestClient_SaveDraft_KnownID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/agents/{agentId}/saveApplicationDraft", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["applicationId"] != "app-9" {
			t.Errorf("applicationId = %q, want app-9", body["applicationId"])
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	c := newClient(t, mux)

	id, err := c.SaveDraft(context.Background(), domain.DraftUpsert{ApplicationID: "app-9", AgentID: "a", Fields: domain.NewDraft()})
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if id != "app-9" {
		t.Errorf("id = %q, want app-9", id)
	}
}

func TestClient_SaveDraft_MissingID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/agents/{agentId}/saveApplicationDraft", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	c := newClient(t, mux)

	_, err := c.SaveDraft(context.Background(), domain.DraftUpsert{AgentID: "a", Fields: domain.NewDraft()})
	var be *domain.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
}

func TestClient_UploadDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/files/applications/{id}/documents/{docType}/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "app-1" || r.PathValue("docType") != "aadhaar" {
			t.Errorf("path = %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("reading file part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "aadhaar.pdf" || string(data) != "%PDF-1.4" {
			t.Errorf("file = %q %q", hdr.Filename, data)
		}
		w.WriteHeader(http.StatusOK)
	})
	c := newClient(t, mux)

	err := c.UploadDocument(context.Background(), domain.DocumentUpload{
		ApplicationID: "app-1",
		Type:          domain.DocumentAadhaar,
		FileName:      "aadhaar.pdf",
		MimeType:      "application/pdf",
		Size:          8,
		Content:       strings.NewReader("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("UploadDocument failed: %v", err)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such application"})
	})
	mux.HandleFunc("POST /api/agents/applications/{id}/submitDraftedApplication", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "documents missing"})
	})
	mux.HandleFunc("POST /api/register-agent", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newClient(t, mux)
	ctx := context.Background()

	if _, err := c.Get(ctx, "x"); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Errorf("Get: expected ErrApplicationNotFound, got %v", err)
	}

	_, err := c.Submit(ctx, "x")
	var be *domain.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("Submit: expected BackendError, got %v", err)
	}
	if be.StatusCode != http.StatusBadRequest || be.Message != "documents missing" {
		t.Errorf("Submit error = %+v", be)
	}

	err = c.RegisterAgent(ctx, domain.AgentRegistration{AgentName: "A"})
	if !errors.As(err, &be) || be.StatusCode != http.StatusInternalServerError || be.Message != "boom" {
		t.Errorf("RegisterAgent error = %v", err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := backend.New(backend.Options{BaseURL: url, Timeout: time.Second, RateLimit: 10, Burst: 1})
	_, err := c.Get(context.Background(), "x")
	var be *domain.BackendError
	if !errors.As(err, &be) || be.StatusCode != 0 {
		t.Errorf("expected transport BackendError, got %v", err)
	}
}

func TestClient_GetDecodesApplication(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":          r.PathValue("id"),
			"status":      "DISCREPANCY",
			"agentName":   "Ravi",
			"firm":        "Sharma Stores",
			"instPincode": 411001,
			"createdAt":   "2024-03-10T09:00:00Z",
			"docs":        []map[string]any{{"type": "pan", "name": "pan.pdf", "size": 10}},
			"discrepancyItems": []map[string]any{
				{"code": "DOC_QUALITY", "message": "blurry"},
			},
		})
	})
	c := newClient(t, mux)

	app, err := c.Get(context.Background(), "app-7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if app.ID != "app-7" || app.Status != domain.StatusDiscrepancy || app.AgentName != "Ravi" {
		t.Errorf("app = %+v", app)
	}
	if app.Fields.Get(domain.FieldFirm) != "Sharma Stores" {
		t.Errorf("firm = %q", app.Fields.Get(domain.FieldFirm))
	}
	if app.Fields.Get(domain.FieldInstPincode) != "411001" {
		t.Errorf("pincode = %q", app.Fields.Get(domain.FieldInstPincode))
	}
	if !app.CreatedAt.Equal(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", app.CreatedAt)
	}
	if len(app.Documents) != 1 || len(app.DiscrepancyItems) != 1 {
		t.Errorf("documents = %v, items = %v", app.Documents, app.DiscrepancyItems)
	}
}

func TestClient_ListSendsFilters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/agents/getAllApplications", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "SUBMITTED" || q.Get("q") != "sharma" {
			t.Errorf("query = %v", q)
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "a1", "status": "SUBMITTED"},
			{"id": "a2", "status": "SUBMITTED"},
		})
	})
	c := newClient(t, mux)

	apps, err := c.List(context.Background(), domain.ListFilter{Statuses: []domain.Status{domain.StatusSubmitted}, Query: " sharma "})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(apps) != 2 || apps[1].ID != "a2" {
		t.Errorf("apps = %+v", apps)
	}
}

func TestClient_ReviewActions(t *testing.T) {
	var rejectBody, discrepancyBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/approver/applications/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"vpa": "merchant1@upi", "qrPayload": "upi://pay?pa=merchant1@upi", "qrImageUrl": "/qr/1.png"})
	})
	mux.HandleFunc("POST /api/approver/applications/{id}/reject", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&rejectBody)
		writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "status": "REJECTED"})
	})
	mux.HandleFunc("POST /api/approver/applications/{id}/discrepancy", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&discrepancyBody)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "status": "DISCREPANCY"})
	})
	c := newClient(t, mux)
	ctx := context.Background()

	qr, err := c.Approve(ctx, "1")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if qr.VPA != "merchant1@upi" || qr.ImageURL != "/qr/1.png" {
		t.Errorf("qr = %+v", qr)
	}

	app, err := c.Reject(ctx, "2", domain.Rejection{Reason: "Rejected by approver", Comment: "fake docs"})
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if app.Status != domain.StatusRejected {
		t.Errorf("status = %q", app.Status)
	}
	if rejectBody["comment"] != "fake docs" || rejectBody["status"] != "rejected" {
		t.Errorf("reject body = %v", rejectBody)
	}

	app, err = c.SetDiscrepancy(ctx, "3", []domain.DiscrepancyItem{{Code: "INVALID_PAN", Message: "PAN format or details are invalid"}}, "check PAN")
	if err != nil {
		t.Fatalf("SetDiscrepancy failed: %v", err)
	}
	if app.ID != "3" || app.Status != domain.StatusDiscrepancy {
		t.Errorf("app = %+v", app)
	}
	items, _ := discrepancyBody["items"].([]any)
	if len(items) != 1 || discrepancyBody["comment"] != "check PAN" {
		t.Errorf("discrepancy body = %v", discrepancyBody)
	}
}

func TestClient_DocumentsAndMetrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/files/applications/{id}/documentsList/urls", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"pan": "https://files/pan.pdf"})
	})
	mux.HandleFunc("GET /api/monitor/metrics/overview", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"total": 3, "approved": 1,
			"dailyStats":       []map[string]any{{"date": "2024-03-10", "submissions": 2, "approvals": 1}},
			"agentLeaderboard": []map[string]any{{"agentName": "Ravi", "submitted": 2, "approved": 1, "discrepancyRate": 0.5}},
		})
	})
	c := newClient(t, mux)
	ctx := context.Background()

	docs, err := c.Documents(ctx, "1")
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if docs[domain.DocumentPAN] != "https://files/pan.pdf" {
		t.Errorf("docs = %v", docs)
	}

	m, err := c.MetricsOverview(ctx)
	if err != nil {
		t.Fatalf("MetricsOverview failed: %v", err)
	}
	if m.Total != 3 || len(m.DailyStats) != 1 || m.AgentLeaderboard[0].DiscrepancyRate != 0.5 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/monitor/metrics/overview", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := backend.New(backend.Options{BaseURL: srv.URL, Timeout: time.Second, RateLimit: 0.001, Burst: 1})
	if _, err := c.MetricsOverview(context.Background()); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.MetricsOverview(ctx); err == nil {
		t.Error("second call should be throttled until the context expires")
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1", calls.Load())
	}
}

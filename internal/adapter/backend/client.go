// Package backend talks to the remote onboarding backend over REST.
package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

var _ domain.Backend = (*Client)(nil)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	Burst     int
	// Transport replaces the default HTTP transport, e.g. for tracing.
	Transport http.RoundTripper
}

// Client implements domain.Backend. Outgoing requests share one token
// bucket so a burst of uploads cannot flood the backend.
type Client struct {
	http *resty.Client
}

// New creates a backend client.
func New(opts Options) *Client {
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst)

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		return limiter.Wait(r.Context())
	})

	return &Client{http: rc}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// check turns transport failures and non-2xx responses into errors. With
// notFound set, a 404 becomes domain.ErrApplicationNotFound.
func check(op string, resp *resty.Response, err error, notFound bool) error {
	if err != nil {
		return &domain.BackendError{Op: op, Message: err.Error()}
	}
	if !resp.IsError() {
		return nil
	}
	if notFound && resp.StatusCode() == http.StatusNotFound {
		return domain.ErrApplicationNotFound
	}
	return &domain.BackendError{Op: op, StatusCode: resp.StatusCode(), Message: errorMessage(resp)}
}

func errorMessage(resp *resty.Response) string {
	var body errorBody
	if json.Unmarshal(resp.Body(), &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if s := strings.TrimSpace(resp.String()); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode())
}

func decode(op string, resp *resty.Response, v any) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return &domain.BackendError{Op: op, StatusCode: resp.StatusCode(), Message: "malformed response: " + err.Error()}
	}
	return nil
}

func (c *Client) SaveDraft(ctx context.Context, d domain.DraftUpsert) (string, error) {
	const op = "save draft"
	body := draftPayload(d.Fields)
	if d.ApplicationID != "" {
		body["applicationId"] = d.ApplicationID
	}

	resp, err := c.request(ctx).
		SetPathParam("agentId", d.AgentID).
		SetBody(body).
		Post("/api/agents/{agentId}/saveApplicationDraft")
	if err := check(op, resp, err, false); err != nil {
		return "", err
	}

	var out draftResponse
	if err := decode(op, resp, &out); err != nil {
		return "", err
	}
	id, err := scalar(out.ApplicationID)
	if err != nil || id == "" {
		if d.ApplicationID != "" {
			return d.ApplicationID, nil
		}
		return "", &domain.BackendError{Op: op, StatusCode: resp.StatusCode(), Message: "response carries no applicationId"}
	}
	return id, nil
}

func (c *Client) UploadDocument(ctx context.Context, u domain.DocumentUpload) error {
	resp, err := c.request(ctx).
		SetPathParams(map[string]string{"id": u.ApplicationID, "docType": string(u.Type)}).
		SetMultipartField("file", u.FileName, u.MimeType, u.Content).
		Post("/api/v1/files/applications/{id}/documents/{docType}/upload")
	return check("upload "+string(u.Type), resp, err, false)
}

// Submit sends a saved draft for review. When the backend answers without a
// record the application is fetched again.
func (c *Client) Submit(ctx context.Context, id string) (domain.Application, error) {
	const op = "submit"
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		Post("/api/agents/applications/{id}/submitDraftedApplication")
	if err := check(op, resp, err, false); err != nil {
		return domain.Application{}, err
	}

	var out application
	if len(resp.Body()) > 0 && json.Unmarshal(resp.Body(), &out) == nil && out.ID != "" {
		return out.Application, nil
	}
	return c.Get(ctx, id)
}

func (c *Client) List(ctx context.Context, f domain.ListFilter) ([]domain.Application, error) {
	const op = "list applications"
	q := url.Values{}
	for _, s := range f.Statuses {
		q.Add("status", string(s))
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		q.Set("q", query)
	}

	resp, err := c.request(ctx).
		SetQueryParamsFromValues(q).
		Get("/api/agents/getAllApplications")
	if err := check(op, resp, err, false); err != nil {
		return nil, err
	}

	var out []application
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	apps := make([]domain.Application, len(out))
	for i, a := range out {
		apps[i] = a.Application
	}
	return apps, nil
}

func (c *Client) Get(ctx context.Context, id string) (domain.Application, error) {
	const op = "get application"
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		Get("/api/applications/{id}")
	if err := check(op, resp, err, true); err != nil {
		return domain.Application{}, err
	}

	var out application
	if err := decode(op, resp, &out); err != nil {
		return domain.Application{}, err
	}
	return out.Application, nil
}

func (c *Client) Documents(ctx context.Context, id string) (map[domain.DocumentType]string, error) {
	const op = "list documents"
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		Get("/api/v1/files/applications/{id}/documentsList/urls")
	if err := check(op, resp, err, true); err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := decode(op, resp, &raw); err != nil {
		return nil, err
	}
	out := make(map[domain.DocumentType]string, len(raw))
	for k, v := range raw {
		out[domain.DocumentType(k)] = v
	}
	return out, nil
}

func (c *Client) Approve(ctx context.Context, id string) (domain.QRInfo, error) {
	const op = "approve"
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		Post("/api/approver/applications/{id}/approve")
	if err := check(op, resp, err, false); err != nil {
		return domain.QRInfo{}, err
	}

	var out qrDTO
	if len(resp.Body()) > 0 {
		if err := decode(op, resp, &out); err != nil {
			return domain.QRInfo{}, err
		}
	}
	return out.toDomain(), nil
}

func (c *Client) Reject(ctx context.Context, id string, r domain.Rejection) (domain.Application, error) {
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		SetBody(rejectRequest{Reason: r.Reason, Comment: r.Comment, Status: "rejected"}).
		Post("/api/approver/applications/{id}/reject")
	if err := check("reject", resp, err, false); err != nil {
		return domain.Application{}, err
	}
	return c.echoed(ctx, id, resp)
}

func (c *Client) SetDiscrepancy(ctx context.Context, id string, items []domain.DiscrepancyItem, comment string) (domain.Application, error) {
	req := discrepancyRequest{Comment: comment, Items: make([]discrepancyDTO, len(items))}
	for i, it := range items {
		req.Items[i] = discrepancyDTO{Code: it.Code, Message: it.Message}
	}

	resp, err := c.request(ctx).
		SetPathParam("id", id).
		SetBody(req).
		Post("/api/approver/applications/{id}/discrepancy")
	if err := check("set discrepancy", resp, err, false); err != nil {
		return domain.Application{}, err
	}
	return c.echoed(ctx, id, resp)
}

// echoed returns the record in resp, or fetches it when the body is empty.
func (c *Client) echoed(ctx context.Context, id string, resp *resty.Response) (domain.Application, error) {
	var out application
	if len(resp.Body()) > 0 && json.Unmarshal(resp.Body(), &out) == nil && out.ID != "" {
		return out.Application, nil
	}
	return c.Get(ctx, id)
}

func (c *Client) QR(ctx context.Context, id string) (domain.QRInfo, error) {
	const op = "get qr"
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		Get("/api/applications/{id}/qr")
	if err := check(op, resp, err, true); err != nil {
		return domain.QRInfo{}, err
	}

	var out qrDTO
	if err := decode(op, resp, &out); err != nil {
		return domain.QRInfo{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) MetricsOverview(ctx context.Context) (domain.MetricsOverview, error) {
	const op = "metrics overview"
	resp, err := c.request(ctx).Get("/api/monitor/metrics/overview")
	if err := check(op, resp, err, false); err != nil {
		return domain.MetricsOverview{}, err
	}

	var out metricsDTO
	if err := decode(op, resp, &out); err != nil {
		return domain.MetricsOverview{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) RegisterAgent(ctx context.Context, reg domain.AgentRegistration) error {
	resp, err := c.request(ctx).
		SetBody(registrationDTO{
			AgentName:    reg.AgentName,
			MobileNumber: reg.MobileNumber,
			Email:        reg.Email,
			Branch:       reg.Branch,
			Division:     reg.Division,
			SubDivision:  reg.SubDivision,
		}).
		Post("/api/register-agent")
	return check("register agent", resp, err, false)
}

package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/export"
)

type MetricsOutput struct {
	Body MetricsResponse
}

type CSVOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func csvOutput(name string, buf *bytes.Buffer) *CSVOutput {
	return &CSVOutput{
		ContentType:        export.ContentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", name),
		Body:               buf.Bytes(),
	}
}

type RegisterAgentInput struct {
	Body struct {
		AgentName    string `json:"agent_name"`
		MobileNumber string `json:"mobile_number" doc:"10 digits"`
		Email        string `json:"email"`
		Branch       string `json:"branch,omitempty"`
		Division     string `json:"division,omitempty"`
		SubDivision  string `json:"sub_division,omitempty"`
	}
}

func registerMonitor(api huma.API, apps *app.ApplicationService, now func() time.Time) {
	tags := []string{"Monitor"}

	huma.Register(api, huma.Operation{
		OperationID: "metrics-overview",
		Method:      http.MethodGet,
		Path:        "/api/v1/monitor/overview",
		Summary:     "Dashboard metrics",
		Tags:        tags,
	}, func(ctx context.Context, _ *struct{}) (*MetricsOutput, error) {
		if _, err := require(ctx, domain.RoleMonitor); err != nil {
			return nil, err
		}
		m, err := apps.Metrics(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MetricsOutput{Body: toMetricsResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-metrics",
		Method:      http.MethodGet,
		Path:        "/api/v1/monitor/overview/export",
		Summary:     "Dashboard metrics as CSV",
		Tags:        tags,
	}, func(ctx context.Context, _ *struct{}) (*CSVOutput, error) {
		if _, err := require(ctx, domain.RoleMonitor); err != nil {
			return nil, err
		}
		m, err := apps.Metrics(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		var buf bytes.Buffer
		if err := export.Metrics(&buf, m); err != nil {
			return nil, toHumaError(err)
		}
		return csvOutput(export.MetricsFilename(now()), &buf), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "monitor-applications",
		Method:      http.MethodGet,
		Path:        "/api/v1/monitor/applications",
		Summary:     "All applications",
		Tags:        tags,
	}, func(ctx context.Context, input *ListInput) (*ListOutput, error) {
		if _, err := require(ctx, domain.RoleMonitor); err != nil {
			return nil, err
		}
		f, err := input.filter()
		if err != nil {
			return nil, err
		}
		list, err := apps.List(ctx, f)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListOutput{Body: toApplicationResponses(list)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-applications",
		Method:      http.MethodGet,
		Path:        "/api/v1/monitor/applications/export",
		Summary:     "Applications as CSV",
		Tags:        tags,
	}, func(ctx context.Context, input *ListInput) (*CSVOutput, error) {
		if _, err := require(ctx, domain.RoleMonitor); err != nil {
			return nil, err
		}
		f, err := input.filter()
		if err != nil {
			return nil, err
		}
		list, err := apps.List(ctx, f)
		if err != nil {
			return nil, toHumaError(err)
		}
		var buf bytes.Buffer
		if err := export.Applications(&buf, list); err != nil {
			return nil, toHumaError(err)
		}
		return csvOutput(export.ApplicationsFilename(now()), &buf), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "application-qr",
		Method:      http.MethodGet,
		Path:        "/api/v1/monitor/applications/{id}/qr",
		Summary:     "Payment QR of an approved application",
		Tags:        tags,
	}, func(ctx context.Context, input *IDInput) (*QROutput, error) {
		if _, err := require(ctx, domain.RoleMonitor); err != nil {
			return nil, err
		}
		qr, err := apps.QR(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &QROutput{Body: toQRResponse(qr)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "register-agent",
		Method:        http.MethodPost,
		Path:          "/api/v1/monitor/agents",
		Summary:       "Register a field agent",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterAgentInput) (*struct{}, error) {
		if _, err := require(ctx, domain.RoleMonitor); err != nil {
			return nil, err
		}
		err := apps.RegisterAgent(ctx, domain.AgentRegistration{
			AgentName:    input.Body.AgentName,
			MobileNumber: input.Body.MobileNumber,
			Email:        input.Body.Email,
			Branch:       input.Body.Branch,
			Division:     input.Body.Division,
			SubDivision:  input.Body.SubDivision,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}

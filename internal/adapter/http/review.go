package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/domain"
)

type RejectInput struct {
	ID   string `path:"id" doc:"Application ID"`
	Body struct {
		Reason  string `json:"reason,omitempty" doc:"Short reason, defaults to \"Rejected by approver\""`
		Comment string `json:"comment" doc:"Explanation shown to the agent"`
	}
}

type DiscrepancyInput struct {
	ID   string `path:"id" doc:"Application ID"`
	Body struct {
		Codes   []string `json:"codes,omitempty" doc:"Catalogue codes"`
		Custom  string   `json:"custom,omitempty" doc:"Free-text issue"`
		Comment string   `json:"comment,omitempty"`
	}
}

type QROutput struct {
	Body QRResponse
}

type CodesOutput struct {
	Body []DiscrepancyResponse
}

func registerReview(api huma.API, review *app.ReviewService) {
	tags := []string{"Review"}

	huma.Register(api, huma.Operation{
		OperationID: "review-queue",
		Method:      http.MethodGet,
		Path:        "/api/v1/review",
		Summary:     "Applications awaiting review",
		Description: "Defaults to SUBMITTED applications.",
		Tags:        tags,
	}, func(ctx context.Context, input *ListInput) (*ListOutput, error) {
		if _, err := require(ctx, domain.RoleApprover); err != nil {
			return nil, err
		}
		f, err := input.filter()
		if err != nil {
			return nil, err
		}
		list, err := review.Queue(ctx, f)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListOutput{Body: toApplicationResponses(list)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "discrepancy-codes",
		Method:      http.MethodGet,
		Path:        "/api/v1/review/discrepancy-codes",
		Summary:     "Discrepancy catalogue",
		Tags:        tags,
	}, func(ctx context.Context, _ *struct{}) (*CodesOutput, error) {
		if _, err := require(ctx, domain.RoleApprover); err != nil {
			return nil, err
		}
		out := make([]DiscrepancyResponse, len(domain.DiscrepancyCodes))
		for i, c := range domain.DiscrepancyCodes {
			out[i] = DiscrepancyResponse{Code: c.Code, Message: c.Message}
		}
		return &CodesOutput{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-application",
		Method:      http.MethodPost,
		Path:        "/api/v1/review/{id}/approve",
		Summary:     "Approve and issue the payment QR",
		Tags:        tags,
	}, func(ctx context.Context, input *IDInput) (*QROutput, error) {
		sess, err := require(ctx, domain.RoleApprover)
		if err != nil {
			return nil, err
		}
		qr, err := review.Approve(ctx, sess.User, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &QROutput{Body: toQRResponse(qr)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-application",
		Method:      http.MethodPost,
		Path:        "/api/v1/review/{id}/reject",
		Summary:     "Reject an application",
		Tags:        tags,
	}, func(ctx context.Context, input *RejectInput) (*ApplicationOutput, error) {
		sess, err := require(ctx, domain.RoleApprover)
		if err != nil {
			return nil, err
		}
		a, err := review.Reject(ctx, sess.User, input.ID, domain.Rejection{
			Reason:  input.Body.Reason,
			Comment: input.Body.Comment,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ApplicationOutput{Body: toApplicationResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "flag-discrepancy",
		Method:      http.MethodPost,
		Path:        "/api/v1/review/{id}/discrepancy",
		Summary:     "Return an application to the agent",
		Tags:        tags,
	}, func(ctx context.Context, input *DiscrepancyInput) (*ApplicationOutput, error) {
		sess, err := require(ctx, domain.RoleApprover)
		if err != nil {
			return nil, err
		}
		a, err := review.FlagDiscrepancy(ctx, sess.User, input.ID, app.DiscrepancyRequest{
			Codes:   input.Body.Codes,
			Custom:  input.Body.Custom,
			Comment: input.Body.Comment,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ApplicationOutput{Body: toApplicationResponse(a)}, nil
	})
}

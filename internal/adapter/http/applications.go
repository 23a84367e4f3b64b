package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/preview"
)

const dateLayout = "2006-01-02"

// ListInput holds the list criteria shared by the agent, review and monitor
// lists.
type ListInput struct {
	Status string `query:"status" required:"false" doc:"Comma-separated statuses"`
	Query  string `query:"q" required:"false" doc:"Free-text search"`
	From   string `query:"from" required:"false" doc:"Created on or after (YYYY-MM-DD)"`
	To     string `query:"to" required:"false" doc:"Created on or before (YYYY-MM-DD)"`
	Agent  string `query:"agent" required:"false" doc:"Agent name contains"`
	City   string `query:"city" required:"false" doc:"City equals"`
	Limit  int    `query:"limit" required:"false" minimum:"0" doc:"Max results"`
	Offset int    `query:"offset" required:"false" minimum:"0" doc:"Pagination offset"`
}

func (in *ListInput) filter() (domain.ListFilter, error) {
	f := domain.ListFilter{
		Query:  strings.TrimSpace(in.Query),
		Agent:  in.Agent,
		City:   in.City,
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	for _, raw := range strings.Split(in.Status, ",") {
		raw = strings.ToUpper(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		s := domain.Status(raw)
		if !s.Valid() {
			return f, huma.Error422UnprocessableEntity(fmt.Sprintf("unknown status %q", raw))
		}
		f.Statuses = append(f.Statuses, s)
	}

	var err error
	if in.From != "" {
		if f.DateFrom, err = time.Parse(dateLayout, in.From); err != nil {
			return f, huma.Error422UnprocessableEntity("from must be YYYY-MM-DD")
		}
	}
	if in.To != "" {
		to, err := time.Parse(dateLayout, in.To)
		if err != nil {
			return f, huma.Error422UnprocessableEntity("to must be YYYY-MM-DD")
		}
		f.DateTo = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return f, nil
}

type ListOutput struct {
	Body []ApplicationResponse
}

type IDInput struct {
	ID string `path:"id" doc:"Application ID"`
}

type PreviewInput struct {
	Handle string `path:"handle" doc:"Preview handle"`
}

type PreviewOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func registerApplications(api huma.API, apps *app.ApplicationService, review *app.ReviewService, wizards *app.WizardService, previews *preview.Registry) {
	tags := []string{"Applications"}

	huma.Register(api, huma.Operation{
		OperationID: "list-applications",
		Method:      http.MethodGet,
		Path:        "/api/v1/applications",
		Summary:     "List applications",
		Tags:        tags,
	}, func(ctx context.Context, input *ListInput) (*ListOutput, error) {
		if _, err := require(ctx, domain.RoleAgent); err != nil {
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
		OperationID: "get-application",
		Method:      http.MethodGet,
		Path:        "/api/v1/applications/{id}",
		Summary:     "Get an application with its documents",
		Tags:        tags,
	}, func(ctx context.Context, input *IDInput) (*ApplicationOutput, error) {
		sess, err := require(ctx)
		if err != nil {
			return nil, err
		}
		a, err := apps.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := toApplicationResponse(a)
		for _, e := range review.Actions(a.Status, sess.User.Role) {
			resp.Actions = append(resp.Actions, string(e))
		}
		return &ApplicationOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-preview",
		Method:      http.MethodGet,
		Path:        "/api/v1/previews/{handle}",
		Summary:     "Content of a staged document",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *PreviewInput) (*PreviewOutput, error) {
		sess, err := require(ctx, domain.RoleAgent)
		if err != nil {
			return nil, err
		}
		h := preview.Handle(input.Handle)
		if w, err := wizards.Get(sess.ID); err != nil || !w.OwnsPreview(h) {
			return nil, toHumaError(domain.ErrPreviewNotFound)
		}
		p, err := previews.Open(h)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PreviewOutput{
			ContentType:        p.MimeType,
			ContentDisposition: fmt.Sprintf("inline; filename=%q", p.Name),
			Body:               p.Data,
		}, nil
	})
}

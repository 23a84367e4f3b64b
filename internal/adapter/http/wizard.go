package http

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/wizard"
)

type WizardOutput struct {
	Body WizardResponse
}

// --- Fields ---

type SetFieldsInput struct {
	Body struct {
		Fields map[string]string `json:"fields" doc:"Values by field name"`
	}
}

// FieldErrorResponse is an inline message shown next to a field.
type FieldErrorResponse struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

type SetFieldsOutput struct {
	Body struct {
		Wizard WizardResponse       `json:"wizard"`
		Errors []FieldErrorResponse `json:"errors"`
	}
}

// --- Navigation ---

type JumpInput struct {
	Stage int `path:"stage" minimum:"1" doc:"Stage to jump to"`
}

// --- Files ---

type SlotInput struct {
	Slot string `path:"slot" doc:"Document slot"`
}

type StageFileInput struct {
	Slot    string `path:"slot" doc:"Document slot"`
	RawBody huma.MultipartFormFiles[struct {
		File huma.FormFile `form:"file" required:"true" doc:"JPEG, PNG or PDF up to 5MB"`
	}]
}

type StagedFileOutput struct {
	Body StagedFileResponse
}

// --- Save, upload, submit ---

type SaveDraftOutput struct {
	Body struct {
		ApplicationID string         `json:"application_id"`
		Wizard        WizardResponse `json:"wizard"`
	}
}

type UploadOutput struct {
	Body struct {
		Uploaded []StagedFileResponse `json:"uploaded"`
		Wizard   WizardResponse       `json:"wizard"`
	}
}

type EditInput struct {
	ID string `path:"id" doc:"Application ID"`
}

type ApplicationOutput struct {
	Body ApplicationResponse
}

type wizardHandler struct {
	wizards *app.WizardService
}

// current returns the caller's session and active wizard. Only agents own
// wizards.
func (h *wizardHandler) current(ctx context.Context) (app.Session, *wizard.Wizard, error) {
	sess, err := require(ctx, domain.RoleAgent)
	if err != nil {
		return app.Session{}, nil, err
	}
	w, err := h.wizards.Get(sess.ID)
	if err != nil {
		return app.Session{}, nil, toHumaError(err)
	}
	return sess, w, nil
}

func viewOf(w *wizard.Wizard) (WizardResponse, error) {
	v, err := w.View()
	if err != nil {
		return WizardResponse{}, toHumaError(err)
	}
	return toWizardResponse(v), nil
}

func registerWizard(api huma.API, wizards *app.WizardService) {
	h := &wizardHandler{wizards: wizards}
	tags := []string{"Wizard"}

	huma.Register(api, huma.Operation{
		OperationID:   "start-wizard",
		Method:        http.MethodPost,
		Path:          "/api/v1/wizard",
		Summary:       "Open a new application wizard",
		Description:   "Discards the caller's previous wizard, if any.",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, _ *struct{}) (*WizardOutput, error) {
		sess, err := require(ctx, domain.RoleAgent)
		if err != nil {
			return nil, err
		}
		body, err := viewOf(h.wizards.Start(sess))
		if err != nil {
			return nil, err
		}
		return &WizardOutput{Body: body}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "edit-application",
		Method:        http.MethodPost,
		Path:          "/api/v1/wizard/edit/{id}",
		Summary:       "Open a wizard over a draft or discrepancy application",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *EditInput) (*WizardOutput, error) {
		sess, err := require(ctx, domain.RoleAgent)
		if err != nil {
			return nil, err
		}
		w, err := h.wizards.StartEdit(ctx, sess, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		body, err := viewOf(w)
		if err != nil {
			return nil, err
		}
		return &WizardOutput{Body: body}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-wizard",
		Method:      http.MethodGet,
		Path:        "/api/v1/wizard",
		Summary:     "Current wizard",
		Tags:        tags,
	}, func(ctx context.Context, _ *struct{}) (*WizardOutput, error) {
		_, w, err := h.current(ctx)
		if err != nil {
			return nil, err
		}
		body, err := viewOf(w)
		if err != nil {
			return nil, err
		}
		return &WizardOutput{Body: body}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "discard-wizard",
		Method:        http.MethodDelete,
		Path:          "/api/v1/wizard",
		Summary:       "Discard the current wizard",
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		sess, err := require(ctx, domain.RoleAgent)
		if err != nil {
			return nil, err
		}
		h.wizards.Discard(sess.ID)
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-wizard-fields",
		Method:      http.MethodPatch,
		Path:        "/api/v1/wizard/fields",
		Summary:     "Set form values",
		Description: "Stores every value. Values that fail their rule are kept and reported inline.",
		Tags:        tags,
	}, func(ctx context.Context, input *SetFieldsInput) (*SetFieldsOutput, error) {
		_, w, err := h.current(ctx)
		if err != nil {
			return nil, err
		}

		values := make(map[domain.FieldName]string, len(input.Body.Fields))
		for k, v := range input.Body.Fields {
			values[domain.FieldName(k)] = v
		}
		inline, err := w.SetFields(values)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &SetFieldsOutput{}
		out.Body.Errors = make([]FieldErrorResponse, len(inline))
		for i, fe := range inline {
			f, _ := domain.LookupField(fe.Field)
			out.Body.Errors[i] = FieldErrorResponse{Field: string(fe.Field), Label: f.Label, Message: fe.Message}
		}
		if out.Body.Wizard, err = viewOf(w); err != nil {
			return nil, err
		}
		return out, nil
	})

	navigate := func(id, path, summary string, move func(*wizard.Wizard) (wizard.View, error)) {
		huma.Register(api, huma.Operation{
			OperationID: id,
			Method:      http.MethodPost,
			Path:        path,
			Summary:     summary,
			Tags:        tags,
		}, func(ctx context.Context, _ *struct{}) (*WizardOutput, error) {
			_, w, err := h.current(ctx)
			if err != nil {
				return nil, err
			}
			v, err := move(w)
			if err != nil {
				return nil, toHumaError(err)
			}
			return &WizardOutput{Body: toWizardResponse(v)}, nil
		})
	}
	navigate("wizard-next", "/api/v1/wizard/next", "Advance one stage", (*wizard.Wizard).Next)
	navigate("wizard-prev", "/api/v1/wizard/prev", "Go back one stage", (*wizard.Wizard).Prev)

	huma.Register(api, huma.Operation{
		OperationID: "wizard-jump",
		Method:      http.MethodPost,
		Path:        "/api/v1/wizard/stages/{stage}",
		Summary:     "Jump to a stage",
		Tags:        tags,
	}, func(ctx context.Context, input *JumpInput) (*WizardOutput, error) {
		_, w, err := h.current(ctx)
		if err != nil {
			return nil, err
		}
		v, err := w.JumpTo(input.Stage)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &WizardOutput{Body: toWizardResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "stage-file",
		Method:       http.MethodPut,
		Path:         "/api/v1/wizard/files/{slot}",
		Summary:      "Stage a document",
		Tags:         tags,
		MaxBodyBytes: 2 * wizard.MaxFileSize,
	}, func(ctx context.Context, input *StageFileInput) (*StagedFileOutput, error) {
		_, w, err := h.current(ctx)
		if err != nil {
			return nil, err
		}
		slot, err := domain.ParseDocumentSlot(input.Slot)
		if err != nil {
			return nil, toHumaError(err)
		}

		form := input.RawBody.Data()
		data, err := io.ReadAll(io.LimitReader(form.File, wizard.MaxFileSize+1))
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("reading file: %v", err))
		}

		f, err := w.StageFile(slot, form.File.Filename, form.File.ContentType, data)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StagedFileOutput{Body: toStagedFileResponse(f)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-file",
		Method:        http.MethodDelete,
		Path:          "/api/v1/wizard/files/{slot}",
		Summary:       "Remove a staged document",
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *SlotInput) (*struct{}, error) {
		_, w, err := h.current(ctx)
		if err != nil {
			return nil, err
		}
		slot, err := domain.ParseDocumentSlot(input.Slot)
		if err != nil {
			return nil, toHumaError(err)
		}
		if err := w.RemoveFile(slot); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-draft",
		Method:      http.MethodPost,
		Path:        "/api/v1/wizard/save",
		Summary:     "Save the draft",
		Tags:        tags,
	}, func(ctx context.Context, _ *struct{}) (*SaveDraftOutput, error) {
		sess, w, err := h.current(ctx)
		if err != nil {
			return nil, err
		}
		id, err := h.wizards.SaveDraft(ctx, sess)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &SaveDraftOutput{}
		out.Body.ApplicationID = id
		if out.Body.Wizard, err = viewOf(w); err != nil {
			return nil, err
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "upload-documents",
		Method:      http.MethodPost,
		Path:        "/api/v1/wizard/upload",
		Summary:     "Upload every staged document",
		Tags:        tags,
	}, func(ctx context.Context, _ *struct{}) (*UploadOutput, error) {
		sess, w, err := h.current(ctx)
		if err != nil {
			return nil, err
		}
		uploaded, err := h.wizards.UploadDocuments(ctx, sess)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &UploadOutput{}
		out.Body.Uploaded = toStagedFileResponses(uploaded)
		if out.Body.Wizard, err = viewOf(w); err != nil {
			return nil, err
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "upload-document",
		Method:      http.MethodPost,
		Path:        "/api/v1/wizard/files/{slot}/upload",
		Summary:     "Upload one staged document",
		Tags:        tags,
	}, func(ctx context.Context, input *SlotInput) (*StagedFileOutput, error) {
		sess, err := require(ctx, domain.RoleAgent)
		if err != nil {
			return nil, err
		}
		slot, err := domain.ParseDocumentSlot(input.Slot)
		if err != nil {
			return nil, toHumaError(err)
		}
		f, err := h.wizards.UploadDocument(ctx, sess, slot)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StagedFileOutput{Body: toStagedFileResponse(f)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-application",
		Method:      http.MethodPost,
		Path:        "/api/v1/wizard/submit",
		Summary:     "Submit the application for review",
		Description: "Closes the wizard on success.",
		Tags:        tags,
	}, func(ctx context.Context, _ *struct{}) (*ApplicationOutput, error) {
		sess, err := require(ctx, domain.RoleAgent)
		if err != nil {
			return nil, err
		}
		a, err := h.wizards.Submit(ctx, sess)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ApplicationOutput{Body: toApplicationResponse(a)}, nil
	})
}

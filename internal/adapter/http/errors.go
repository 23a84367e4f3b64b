package http

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

// AuthError is the 401 body. LoginPath tells the client where to send the
// visitor.
type AuthError struct {
	huma.ErrorModel
	LoginPath string `json:"login_path" doc:"Where to send unauthenticated visitors"`
}

func (e *AuthError) Error() string  { return e.Detail }
func (e *AuthError) GetStatus() int { return e.Status }

func unauthenticated() error {
	return &AuthError{
		ErrorModel: huma.ErrorModel{
			Title:  http.StatusText(http.StatusUnauthorized),
			Status: http.StatusUnauthorized,
			Detail: domain.ErrUnauthenticated.Error(),
		},
		LoginPath: domain.LoginPath,
	}
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrUnauthenticated) {
		return unauthenticated()
	}

	var accessErr *domain.AccessError
	if errors.As(err, &accessErr) {
		return huma.Error403Forbidden("access restricted")
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		details := make([]error, len(valErr.Fields))
		for i, f := range valErr.Fields {
			details[i] = &huma.ErrorDetail{Location: "body." + string(f.Field), Message: f.Message}
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	}

	var uploadErr *domain.UploadRejectedError
	if errors.As(err, &uploadErr) {
		return huma.Error422UnprocessableEntity(uploadErr.Reason, &huma.ErrorDetail{
			Location: "body.file",
			Message:  uploadErr.Reason,
			Value:    string(uploadErr.Slot),
		})
	}

	var (
		incomplete *domain.IncompleteStageError
		stageRange *domain.StageRangeError
		unkField   *domain.UnknownFieldError
		unkSlot    *domain.UnknownSlotError
		unkRole    *domain.UnknownRoleError
	)
	if errors.As(err, &incomplete) || errors.As(err, &stageRange) ||
		errors.As(err, &unkField) || errors.As(err, &unkSlot) || errors.As(err, &unkRole) {
		return huma.Error422UnprocessableEntity(err.Error())
	}

	switch {
	case errors.Is(err, domain.ErrApplicationNotFound),
		errors.Is(err, domain.ErrWizardNotFound),
		errors.Is(err, domain.ErrPreviewNotFound),
		errors.Is(err, domain.ErrFileNotStaged):
		return huma.Error404NotFound(rootMessage(err))
	case errors.Is(err, domain.ErrRequestInFlight),
		errors.Is(err, domain.ErrAlreadySubmitted),
		errors.Is(err, domain.ErrDraftNotSaved),
		errors.Is(err, domain.ErrNotEditable):
		return huma.Error409Conflict(rootMessage(err))
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error409Conflict(trErr.Error())
	}

	var backendErr *domain.BackendError
	if errors.As(err, &backendErr) {
		return huma.Error502BadGateway(backendErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}

// rootMessage returns the message of the first domain sentinel in err's
// chain, so wrapping context does not leak into responses.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrApplicationNotFound,
		domain.ErrWizardNotFound,
		domain.ErrPreviewNotFound,
		domain.ErrFileNotStaged,
		domain.ErrRequestInFlight,
		domain.ErrAlreadySubmitted,
		domain.ErrDraftNotSaved,
		domain.ErrNotEditable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

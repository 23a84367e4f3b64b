// Package rules evaluates the form rule table with go-playground/validator.
package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/neomorfeo/merchantdesk/internal/domain"
)

var _ domain.FieldValidator = (*Validator)(nil)

var formats = map[string]*regexp.Regexp{
	domain.FormatMobile:  regexp.MustCompile(domain.PatternMobile),
	domain.FormatPincode: regexp.MustCompile(domain.PatternPincode),
	domain.FormatPAN:     regexp.MustCompile(domain.PatternPAN),
	domain.FormatIFSC:    regexp.MustCompile(domain.PatternIFSC),
}

// Validator implements domain.FieldValidator.
type Validator struct {
	engine *validator.Validate
}

// New returns a Validator with the custom format tags registered.
func New() *Validator {
	engine, err := newEngine(formats)
	if err != nil {
		panic(err)
	}
	return &Validator{engine: engine}
}

func newEngine(tags map[string]*regexp.Regexp) (*validator.Validate, error) {
	engine := validator.New(validator.WithRequiredStructEnabled())
	for tag, re := range tags {
		err := engine.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
		if err != nil {
			return nil, fmt.Errorf("registering format %q: %w", tag, err)
		}
	}
	return engine, nil
}

// ValidateField checks value against the rule for name. Blank optional
// values pass without format checks.
func (v *Validator) ValidateField(name domain.FieldName, value string) *domain.FieldError {
	rule, ok := domain.Rules[name]
	if !ok {
		return &domain.FieldError{Field: name, Message: "unknown field"}
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if rule.Required {
			return &domain.FieldError{Field: name, Message: rule.Message}
		}
		return nil
	}

	if rule.Format == "" {
		return nil
	}
	if err := v.engine.Var(trimmed, rule.Format); err != nil {
		return &domain.FieldError{Field: name, Message: rule.Message}
	}
	return nil
}

// ValidateDraft checks every catalogued field and returns a
// *domain.ValidationError listing all failures, in form order.
func (v *Validator) ValidateDraft(d domain.Draft) error {
	var failures []domain.FieldError
	for _, f := range domain.Fields {
		if fe := v.ValidateField(f.Name, d.Get(f.Name)); fe != nil {
			failures = append(failures, *fe)
		}
	}
	if len(failures) > 0 {
		return &domain.ValidationError{Fields: failures}
	}
	return nil
}

// Validate checks value against an arbitrary validator tag such as "required,email".
func (v *Validator) Validate(ctx context.Context, value, tag string) error {
	return v.engine.VarCtx(ctx, strings.TrimSpace(value), tag)
}

package domain

import "context"

// FieldRule constrains a single form field. Format is a validator tag
// evaluated against the trimmed value when the value is present.
type FieldRule struct {
	Required bool
	Format   string
	Message  string
}

// Custom format tags understood by every FieldValidator.
const (
	FormatMobile  = "mobile"
	FormatPincode = "pincode"
	FormatPAN     = "pan"
	FormatIFSC    = "ifsc"
)

// Format patterns backing the custom tags.
const (
	PatternMobile  = `^\d{10}$`
	PatternPincode = `^\d{6}$`
	PatternPAN     = `^[A-Z]{5}\d{4}[A-Z]$`
	PatternIFSC    = `^[A-Z]{4}0[A-Z0-9]{6}$`
)

// Rules is the per-field rule table.
var Rules = map[FieldName]FieldRule{
	FieldApplName:      {Required: true, Message: "Application name is required"},
	FieldFirm:          {Required: true, Message: "Firm name is required"},
	FieldDBA:           {},
	FieldContactPerson: {Required: true, Message: "Contact person is required"},
	FieldMobile:        {Required: true, Format: FormatMobile, Message: "Mobile must be 10 digits"},
	FieldInstAddr1:     {Required: true, Message: "Address line 1 is required"},
	FieldInstAddr2:     {},
	FieldInstAddr3:     {},
	FieldInstLocality:  {Required: true, Message: "Locality is required"},
	FieldCity:          {Required: true, Message: "City is required"},
	FieldInstPincode:   {Required: true, Format: FormatPincode, Message: "Pincode must be 6 digits"},
	FieldMCC:           {Required: true, Format: "min=4", Message: "MCC code is required"},
	FieldPAN:           {Required: true, Format: FormatPAN, Message: "Invalid PAN format"},
	FieldPANDob:        {Required: true, Message: "PAN DOB is required"},
	FieldAccountType:   {Required: true, Format: "oneof=savings current", Message: "Account type is required"},
	FieldAccountName:   {Required: true, Message: "Account holder name is required"},
	FieldIFSC:          {Required: true, Format: FormatIFSC, Message: "Invalid IFSC code"},
	FieldAccountNumber: {Required: true, Format: "min=8", Message: "Account number must be at least 8 digits"},
	FieldServiceType:   {Required: true, Format: "oneof=QR BOOMBOX BOTH", Message: "Service type is required"},
}

// FieldValidator evaluates field rules.
type FieldValidator interface {
	// ValidateField returns nil when value satisfies the rule for name.
	ValidateField(name FieldName, value string) *FieldError
	// ValidateDraft checks every field of d and reports all failures together.
	ValidateDraft(d Draft) error
	// Validate checks an arbitrary value against a validator tag.
	Validate(ctx context.Context, value, tag string) error
}

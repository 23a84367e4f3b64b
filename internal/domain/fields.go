package domain

import "strings"

// FieldName identifies one input of the application form.
type FieldName string

const (
	FieldApplName      FieldName = "appl_name"
	FieldFirm          FieldName = "firm"
	FieldDBA           FieldName = "dba"
	FieldContactPerson FieldName = "contact_person"
	FieldMobile        FieldName = "mobile"
	FieldInstAddr1     FieldName = "inst_addr1"
	FieldInstAddr2     FieldName = "inst_addr2"
	FieldInstAddr3     FieldName = "inst_addr3"
	FieldInstLocality  FieldName = "inst_locality"
	FieldCity          FieldName = "city"
	FieldInstPincode   FieldName = "inst_pincode"
	FieldMCC           FieldName = "mcc"
	FieldPAN           FieldName = "pan"
	FieldPANDob        FieldName = "pan_dob"
	FieldAccountType   FieldName = "me_ac_type"
	FieldAccountName   FieldName = "me_name"
	FieldIFSC          FieldName = "me_ifsc"
	FieldAccountNumber FieldName = "me_ac_no"
	FieldServiceType   FieldName = "qr_boombox"
)

// Field describes how a form field is named on the wire and to humans.
type Field struct {
	Name  FieldName
	Wire  string
	Label string
}

// Fields is the complete field catalogue in form order.
var Fields = []Field{
	{Name: FieldApplName, Wire: "applName", Label: "Application Name"},
	{Name: FieldFirm, Wire: "firm", Label: "Firm Name"},
	{Name: FieldDBA, Wire: "dba", Label: "DBA"},
	{Name: FieldContactPerson, Wire: "contactPerson", Label: "Contact Person"},
	{Name: FieldMobile, Wire: "mobile", Label: "Mobile"},
	{Name: FieldInstAddr1, Wire: "instAddr1", Label: "Address Line 1"},
	{Name: FieldInstAddr2, Wire: "instAddr2", Label: "Address Line 2"},
	{Name: FieldInstAddr3, Wire: "instAddr3", Label: "Address Line 3"},
	{Name: FieldInstLocality, Wire: "instLocality", Label: "Locality"},
	{Name: FieldCity, Wire: "city", Label: "City"},
	{Name: FieldInstPincode, Wire: "instPincode", Label: "Pincode"},
	{Name: FieldMCC, Wire: "mcc", Label: "MCC"},
	{Name: FieldPAN, Wire: "pan", Label: "PAN"},
	{Name: FieldPANDob, Wire: "panDob", Label: "PAN DOB"},
	{Name: FieldAccountType, Wire: "meAcType", Label: "Account Type"},
	{Name: FieldAccountName, Wire: "meName", Label: "Account Holder"},
	{Name: FieldIFSC, Wire: "meIfsc", Label: "IFSC"},
	{Name: FieldAccountNumber, Wire: "meAcNo", Label: "Account Number"},
	{Name: FieldServiceType, Wire: "qrBoombox", Label: "Service Type"},
}

var fieldIndex = func() map[FieldName]Field {
	out := make(map[FieldName]Field, len(Fields))
	for _, f := range Fields {
		out[f.Name] = f
	}
	return out
}()

// LookupField returns the catalogue entry for name.
func LookupField(name FieldName) (Field, bool) {
	f, ok := fieldIndex[name]
	return f, ok
}

// ParseFieldName converts raw input into a known FieldName.
func ParseFieldName(raw string) (FieldName, error) {
	name := FieldName(raw)
	if _, ok := fieldIndex[name]; !ok {
		return "", &UnknownFieldError{Field: raw}
	}
	return name, nil
}

// Draft holds the in-progress values of an application form.
type Draft map[FieldName]string

// NewDraft returns an empty draft with every field present.
func NewDraft() Draft {
	d := make(Draft, len(Fields))
	for _, f := range Fields {
		d[f.Name] = ""
	}
	return d
}

// Get returns the raw value of name, or "" when unset.
func (d Draft) Get(name FieldName) string {
	return d[name]
}

// Filled reports whether name holds a non-blank value.
func (d Draft) Filled(name FieldName) bool {
	return strings.TrimSpace(d[name]) != ""
}

// Clone returns an independent copy of d.
func (d Draft) Clone() Draft {
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge copies every known field of src into d, overwriting existing values.
func (d Draft) Merge(src Draft) {
	for k, v := range src {
		if _, ok := fieldIndex[k]; ok {
			d[k] = v
		}
	}
}

// Address joins the installation address lines the way lists display them.
func (d Draft) Address() string {
	parts := make([]string, 0, 3)
	for _, name := range []FieldName{FieldInstAddr1, FieldInstAddr2, FieldInstAddr3} {
		if v := strings.TrimSpace(d[name]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

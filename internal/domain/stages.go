package domain

import "fmt"

// DocumentType is the tag the backend uses to file an uploaded document.
type DocumentType string

const (
	DocumentPAN           DocumentType = "pan"
	DocumentAadhaar       DocumentType = "aadhaar"
	DocumentBankStatement DocumentType = "bankstatement"
	DocumentShopPhoto     DocumentType = "shopphoto"
)

// DocumentSlot names a place in the form where one file can be staged.
type DocumentSlot string

const (
	SlotPANDocument    DocumentSlot = "pan_document"
	SlotAadharDocument DocumentSlot = "aadhar_document"
	SlotBankStatement  DocumentSlot = "bank_statement"
	SlotShopPhoto      DocumentSlot = "shop_photo"
)

var slotTypes = map[DocumentSlot]DocumentType{
	SlotPANDocument:    DocumentPAN,
	SlotAadharDocument: DocumentAadhaar,
	SlotBankStatement:  DocumentBankStatement,
	SlotShopPhoto:      DocumentShopPhoto,
}

// DocumentType returns the backend tag for the slot.
func (s DocumentSlot) DocumentType() (DocumentType, bool) {
	t, ok := slotTypes[s]
	return t, ok
}

// ParseDocumentSlot converts raw input into a known slot.
func ParseDocumentSlot(raw string) (DocumentSlot, error) {
	slot := DocumentSlot(raw)
	if _, ok := slotTypes[slot]; !ok {
		return "", &UnknownSlotError{Slot: raw}
	}
	return slot, nil
}

// StageKind distinguishes form stages from the document stage.
type StageKind int

const (
	StageKindFields StageKind = iota
	StageKindDocuments
)

// StageField is a member field of a stage.
type StageField struct {
	Name     FieldName
	Required bool
}

// StageDocument is a member document slot of a stage.
type StageDocument struct {
	Slot     DocumentSlot
	Required bool
}

// Stage is one screen of the application wizard.
type Stage struct {
	ID          int
	Title       string
	Description string
	Kind        StageKind
	Fields      []StageField
	Documents   []StageDocument
}

// RequiredFields returns the names of fields the stage cannot be completed without.
func (s Stage) RequiredFields() []FieldName {
	var out []FieldName
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Stages is the ordered wizard definition. IDs run 1..len(Stages).
var Stages = []Stage{
	{
		ID: 1, Title: "Business Info", Description: "Basic business details",
		Fields: []StageField{
			{Name: FieldApplName, Required: true},
			{Name: FieldFirm, Required: true},
			{Name: FieldDBA},
		},
	},
	{
		ID: 2, Title: "Contact", Description: "Contact information",
		Fields: []StageField{
			{Name: FieldContactPerson, Required: true},
			{Name: FieldMobile, Required: true},
		},
	},
	{
		ID: 3, Title: "Address", Description: "Installation address",
		Fields: []StageField{
			{Name: FieldInstAddr1, Required: true},
			{Name: FieldInstAddr2},
			{Name: FieldInstAddr3},
			{Name: FieldInstLocality, Required: true},
			{Name: FieldCity, Required: true},
			{Name: FieldInstPincode, Required: true},
		},
	},
	{
		ID: 4, Title: "Business Details", Description: "PAN and MCC details",
		Fields: []StageField{
			{Name: FieldMCC, Required: true},
			{Name: FieldPAN, Required: true},
			{Name: FieldPANDob, Required: true},
		},
	},
	{
		ID: 5, Title: "Bank Details", Description: "Banking information",
		Fields: []StageField{
			{Name: FieldAccountType, Required: true},
			{Name: FieldAccountName, Required: true},
			{Name: FieldIFSC, Required: true},
			{Name: FieldAccountNumber, Required: true},
		},
	},
	{
		ID: 6, Title: "Service Type", Description: "Choose service type",
		Fields: []StageField{
			{Name: FieldServiceType, Required: true},
		},
	},
	{
		ID: 7, Title: "Documents", Description: "Upload required documents",
		Kind: StageKindDocuments,
		Documents: []StageDocument{
			{Slot: SlotPANDocument, Required: true},
			{Slot: SlotAadharDocument, Required: true},
			{Slot: SlotBankStatement},
			{Slot: SlotShopPhoto, Required: true},
		},
	},
}

// StageByID returns the stage with the given ordinal.
func StageByID(id int) (Stage, bool) {
	if id < 1 || id > len(Stages) {
		return Stage{}, false
	}
	return Stages[id-1], true
}

func init() {
	if err := checkTables(); err != nil {
		panic(err)
	}
}

// checkTables verifies that stages, fields and rules describe the same form:
// every field sits in exactly one stage and has exactly one rule.
func checkTables() error {
	seen := make(map[FieldName]int)
	for i, st := range Stages {
		if st.ID != i+1 {
			return fmt.Errorf("stage %q has id %d, want %d", st.Title, st.ID, i+1)
		}
		for _, f := range st.Fields {
			if _, ok := fieldIndex[f.Name]; !ok {
				return fmt.Errorf("stage %d references unknown field %q", st.ID, f.Name)
			}
			seen[f.Name]++
		}
		for _, d := range st.Documents {
			if _, ok := slotTypes[d.Slot]; !ok {
				return fmt.Errorf("stage %d references unknown slot %q", st.ID, d.Slot)
			}
		}
	}
	for _, f := range Fields {
		if seen[f.Name] != 1 {
			return fmt.Errorf("field %q appears in %d stages", f.Name, seen[f.Name])
		}
		if _, ok := Rules[f.Name]; !ok {
			return fmt.Errorf("field %q has no rule", f.Name)
		}
	}
	if len(Rules) != len(Fields) {
		return fmt.Errorf("%d rules for %d fields", len(Rules), len(Fields))
	}
	return nil
}

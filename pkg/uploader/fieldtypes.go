package uploader

import "sort"

// FieldType identifies the input component used for an uploader field.
type FieldType string

const (
	FieldDate     FieldType = "date"
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldFile     FieldType = "file"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldCheckbox FieldType = "checkbox"
	FieldSwitch   FieldType = "switch"
)

// FieldTypeSpec describes how a field type is rendered and validated.
type FieldTypeSpec struct {
	ID         FieldType `json:"id"`
	Component  string    `json:"component"`
	Validation string    `json:"validation,omitempty"`
	Multipart  bool      `json:"multipart,omitempty"`
}

var fieldTypes = map[FieldType]FieldTypeSpec{
	FieldDate:     {ID: FieldDate, Component: "DateInput", Validation: "datetime=2006-01-02"},
	FieldText:     {ID: FieldText, Component: "TextInput", Validation: "max=255"},
	FieldTextarea: {ID: FieldTextarea, Component: "TextArea", Validation: "max=2000"},
	FieldNumber:   {ID: FieldNumber, Component: "NumberInput", Validation: "numeric"},
	FieldSelect:   {ID: FieldSelect, Component: "Select"},
	FieldFile:     {ID: FieldFile, Component: "FileInput", Multipart: true},
	FieldEmail:    {ID: FieldEmail, Component: "EmailInput", Validation: "email"},
	FieldPhone:    {ID: FieldPhone, Component: "PhoneInput", Validation: "phone"},
	FieldCheckbox: {ID: FieldCheckbox, Component: "Checkbox", Validation: "boolean"},
	FieldSwitch:   {ID: FieldSwitch, Component: "Switch", Validation: "boolean"},
}

// LookupFieldType returns the definition of a known field type.
func LookupFieldType(id FieldType) (FieldTypeSpec, bool) {
	spec, ok := fieldTypes[id]
	return spec, ok
}

// FieldTypes lists every field type ordered by id.
func FieldTypes() []FieldTypeSpec {
	specs := make([]FieldTypeSpec, 0, len(fieldTypes))
	for _, spec := range fieldTypes {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

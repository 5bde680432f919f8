package uploader

import "fmt"

var provinces = []string{"AB", "BC", "MB", "NB", "NL", "NS", "NT", "NU", "ON", "PE", "QC", "SK", "YT"}

const documentAccept = "application/pdf,image/*"

func fileField(name, label string, required bool) FieldConfig {
	return FieldConfig{
		Name:     name,
		Type:     FieldFile,
		Label:    label,
		Required: required,
		Props:    map[string]interface{}{"accept": documentAccept},
	}
}

func commentField() FieldConfig {
	return FieldConfig{Name: "comment", Type: FieldTextarea, Label: "Comment"}
}

func dateField(name, label string, required bool) FieldConfig {
	return FieldConfig{Name: name, Type: FieldDate, Label: label, Required: required}
}

func defaultConfigs() []Config {
	return []Config{
		{
			ID:          UploaderDocuments,
			Mode:        ModeFormAttached,
			APIEndpoint: "/documents/",
			Fields: []FieldConfig{
				fileField("file", "File", true),
				fileField("file2", "Second page", false),
				commentField(),
			},
		},
		{
			ID:          UploaderDocumentsIssueDate,
			Mode:        ModeFormAttached,
			APIEndpoint: "/documents/",
			Fields: []FieldConfig{
				fileField("file", "File", true),
				dateField("issue_date", "Issue date", true),
				commentField(),
			},
		},
		{
			ID:          UploaderDocumentsExpiryDate,
			Mode:        ModeFormAttached,
			APIEndpoint: "/documents/",
			Fields: []FieldConfig{
				fileField("file", "File", true),
				dateField("expiry_date", "Expiry date", true),
				commentField(),
			},
		},
		{
			ID:          UploaderLicenses,
			Mode:        ModeFormAttached,
			APIEndpoint: "/documents/",
			Fields: []FieldConfig{
				fileField("file", "Front", true),
				fileField("file2", "Back", false),
				{Name: "dl_number", Type: FieldText, Label: "Licence number", Required: true, Validation: "min=5,max=20"},
				{Name: "dl_province", Type: FieldSelect, Label: "Province", Required: true, Props: map[string]interface{}{"options": provinces}},
				dateField("issue_date", "Issue date", false),
				dateField("expiry_date", "Expiry date", true),
				commentField(),
			},
		},
		{
			ID:          UploaderSIN,
			Mode:        ModeFormAttached,
			APIEndpoint: "/documents/",
			Fields: []FieldConfig{
				fileField("file", "File", true),
				{Name: "number", Type: FieldText, Label: "SIN", Required: true, Validation: "numeric,len=9"},
				dateField("expiry_date", "Expiry date", false),
				commentField(),
			},
		},
		{
			ID:          UploaderLicensePlate,
			Mode:        ModeImmediate,
			APIEndpoint: "/documents/",
			Fields: []FieldConfig{
				{Name: "number", Type: FieldText, Label: "Plate number", Required: true, Validation: "min=2,max=10"},
				fileField("file", "Registration", true),
				dateField("expiry_date", "Expiry date", false),
			},
		},
		{
			ID:          UploaderPhotos,
			Mode:        ModeMultiple,
			APIEndpoint: "/photos/",
			Fields: []FieldConfig{
				{Name: "file", Type: FieldFile, Label: "Photos", Required: true, Props: map[string]interface{}{"accept": "image/*", "multiple": true}},
				commentField(),
			},
		},
	}
}

// RegisterDefaults registers the base uploader configs. Call it once at startup.
func RegisterDefaults(r *Registry) error {
	for _, cfg := range defaultConfigs() {
		if err := r.Register(cfg.ID, cfg); err != nil {
			return fmt.Errorf("register default uploaders: %w", err)
		}
	}
	return nil
}

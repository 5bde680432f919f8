package uploader

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Submission is an incoming upload form.
type Submission struct {
	Values map[string]string
	Files  map[string][]*multipart.FileHeader
}

// FieldErrors maps a field name to what is wrong with it.
type FieldErrors map[string]string

// Validate checks sub against cfg and returns the submission restricted to the
// config's fields. FieldErrors is nil when the submission is acceptable.
func (r *Registry) Validate(cfg *Config, sub Submission) (Submission, FieldErrors) {
	clean := Submission{
		Values: make(map[string]string),
		Files:  make(map[string][]*multipart.FileHeader),
	}
	if cfg == nil {
		return clean, FieldErrors{"_": "uploader config is missing"}
	}
	errs := FieldErrors{}

	for _, field := range cfg.Fields {
		if field.Type == FieldFile {
			files := sub.Files[field.Name]
			if len(files) == 0 {
				if field.Required {
					errs[field.Name] = "is required"
				}
				continue
			}
			if len(files) > 1 && cfg.Mode != ModeMultiple {
				errs[field.Name] = "accepts a single file"
				continue
			}
			if msg := checkAccept(field.Accept(), files); msg != "" {
				errs[field.Name] = msg
				continue
			}
			clean.Files[field.Name] = files
			continue
		}

		value := strings.TrimSpace(sub.Values[field.Name])
		if value == "" {
			if field.Required {
				errs[field.Name] = "is required"
			}
			continue
		}
		if msg := r.checkValue(field, value); msg != "" {
			errs[field.Name] = msg
			continue
		}
		clean.Values[field.Name] = value
	}

	if len(errs) == 0 {
		return clean, nil
	}
	return clean, errs
}

func (r *Registry) checkValue(field FieldConfig, value string) string {
	if field.Type == FieldSelect {
		for _, opt := range field.Options() {
			if opt == value {
				return ""
			}
		}
		return fmt.Sprintf("must be one of [%s]", strings.Join(field.Options(), " "))
	}
	tags := make([]string, 0, 2)
	if spec, ok := LookupFieldType(field.Type); ok && spec.Validation != "" {
		tags = append(tags, spec.Validation)
	}
	if field.Validation != "" {
		tags = append(tags, field.Validation)
	}
	for _, tag := range tags {
		if err := r.validate.Var(value, tag); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return fmt.Sprintf("failed %s validation", verrs[0].Tag())
			}
			return err.Error()
		}
	}
	return ""
}

func checkAccept(accept string, files []*multipart.FileHeader) string {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return ""
	}
	patterns := strings.Split(accept, ",")
	for _, fh := range files {
		contentType := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
		if !matchesAny(patterns, contentType) {
			return fmt.Sprintf("file %q has unsupported type %q", fh.Filename, contentType)
		}
	}
	return ""
}

func matchesAny(patterns []string, contentType string) bool {
	if contentType == "" {
		return false
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "*/*" || p == contentType:
			return true
		case strings.HasSuffix(p, "/*") && strings.HasPrefix(contentType, strings.TrimSuffix(p, "*")):
			return true
		}
	}
	return false
}

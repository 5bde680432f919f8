package uploader

import (
	"errors"
	"fmt"
	"strings"
)

// Mode controls when an uploader submits its payload.
type Mode string

const (
	ModeImmediate    Mode = "immediate"
	ModeFormAttached Mode = "form-attached"
	ModeMultiple     Mode = "multiple"
)

// FieldConfig is one input of an uploader form.
type FieldConfig struct {
	Name       string                 `json:"name" validate:"required"`
	Type       FieldType              `json:"type" validate:"required"`
	Label      string                 `json:"label"`
	Required   bool                   `json:"required"`
	Validation string                 `json:"validation,omitempty"`
	Props      map[string]interface{} `json:"props,omitempty"`
}

// Options returns the allowed values of a select field.
func (f FieldConfig) Options() []string {
	switch opts := f.Props["options"].(type) {
	case []string:
		return opts
	case []interface{}:
		out := make([]string, 0, len(opts))
		for _, o := range opts {
			out = append(out, fmt.Sprintf("%v", o))
		}
		return out
	default:
		return nil
	}
}

// Accept returns the accepted content types of a file field ("" accepts anything).
func (f FieldConfig) Accept() string {
	accept, _ := f.Props["accept"].(string)
	return accept
}

// Config describes the form used to upload one class of document.
type Config struct {
	ID                 string        `json:"id" validate:"required"`
	Mode               Mode          `json:"mode" validate:"required,oneof=immediate form-attached multiple"`
	APIEndpoint        string        `json:"apiEndpoint" validate:"required"`
	EntityType         string        `json:"entityType,omitempty"`
	EndpointIdentifier string        `json:"endpointIdentifier,omitempty"`
	Fields             []FieldConfig `json:"fields" validate:"required,min=1,dive"`
}

// Field returns the named field.
func (c Config) Field(name string) (FieldConfig, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldConfig{}, false
}

// Clone returns a copy that shares nothing mutable with c.
func (c Config) Clone() Config {
	fields := make([]FieldConfig, len(c.Fields))
	for i, f := range c.Fields {
		if f.Props != nil {
			props := make(map[string]interface{}, len(f.Props))
			for k, v := range f.Props {
				props[k] = v
			}
			f.Props = props
		}
		fields[i] = f
	}
	c.Fields = fields
	return c
}

// Overrides are runtime values merged over a registered config.
type Overrides struct {
	EntityType         string
	EndpointIdentifier string
	APIEndpoint        string
	Mode               Mode
}

func (o Overrides) apply(c Config) Config {
	if o.EntityType != "" {
		c.EntityType = o.EntityType
	}
	if o.EndpointIdentifier != "" {
		c.EndpointIdentifier = o.EndpointIdentifier
	}
	if o.APIEndpoint != "" {
		c.APIEndpoint = o.APIEndpoint
	}
	if o.Mode != "" {
		c.Mode = o.Mode
	}
	return c
}

// ErrInvalidConfig is matched by every ConfigurationError.
var ErrInvalidConfig = errors.New("invalid uploader config")

// ConfigurationError lists everything wrong with an uploader config.
type ConfigurationError struct {
	UploaderID string
	Problems   []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("uploader config %q: %s", e.UploaderID, strings.Join(e.Problems, "; "))
}

// Is makes errors.Is(err, ErrInvalidConfig) succeed.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

package uploader

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9()\-.\s]{7,20}$`)

// customTags are the validation tags field configs may use beyond validator's built-ins.
var customTags = map[string]validator.Func{
	"phone": func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	},
}

// Registry maps uploader ids to validated configs. It is filled once at startup
// and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	configs  map[string]Config
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRegistry builds an empty registry and installs the custom validation tags on validate.
func NewRegistry(validate *validator.Validate, logger *zap.Logger) (*Registry, error) {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := registerTags(validate, customTags); err != nil {
		return nil, err
	}
	return &Registry{
		configs:  make(map[string]Config),
		validate: validate,
		logger:   logger,
	}, nil
}

func registerTags(validate *validator.Validate, tags map[string]validator.Func) error {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := validate.RegisterValidation(name, tags[name]); err != nil {
			return fmt.Errorf("register validation tag %q: %w", name, err)
		}
	}
	return nil
}

// Register validates cfg and stores it under id, replacing any previous entry.
func (r *Registry) Register(id string, cfg Config) error {
	if err := r.check(id, cfg); err != nil {
		return err
	}
	r.mu.Lock()
	r.configs[id] = cfg.Clone()
	r.mu.Unlock()
	return nil
}

// Get returns a copy of the config registered under id with overrides applied.
// Unknown ids yield nil without an error.
func (r *Registry) Get(id string, overrides Overrides) (*Config, error) {
	r.mu.RLock()
	base, ok := r.configs[id]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("uploader config not found", zap.String("uploader_id", id))
		return nil, nil
	}
	merged := overrides.apply(base.Clone())
	if err := r.check(id, merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ForDocument returns the uploader config for a document key, targeted at the
// given entity type. Unmapped keys use the generic documents uploader.
func (r *Registry) ForDocument(documentKey, entityType string) (*Config, error) {
	return r.Get(UploaderFor(documentKey), Overrides{
		EntityType:         entityType,
		EndpointIdentifier: documentKey,
	})
}

// FieldType returns the definition of field type id, or nil (with a warning) when unknown.
func (r *Registry) FieldType(id string) *FieldTypeSpec {
	spec, ok := LookupFieldType(FieldType(id))
	if !ok {
		r.logger.Warn("unknown uploader field type", zap.String("field_type", id))
		return nil
	}
	return &spec
}

// IDs lists the registered uploader ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) check(id string, cfg Config) error {
	problems := make([]string, 0)
	if strings.TrimSpace(id) == "" {
		problems = append(problems, "registration id is required")
	}
	if err := r.validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, describe(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}
	if cfg.ID != "" && id != "" && cfg.ID != id {
		problems = append(problems, fmt.Sprintf("id %q does not match registration id %q", cfg.ID, id))
	}

	seen := make(map[string]struct{}, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if f.Name != "" {
			if _, dup := seen[f.Name]; dup {
				problems = append(problems, fmt.Sprintf("duplicate field name %q", f.Name))
			}
			seen[f.Name] = struct{}{}
		}
		if f.Type != "" {
			if _, known := LookupFieldType(f.Type); !known {
				problems = append(problems, fmt.Sprintf("field %q has unknown type %q", f.Name, f.Type))
			}
		}
		if f.Type == FieldSelect && len(f.Options()) == 0 {
			problems = append(problems, fmt.Sprintf("select field %q has no options", f.Name))
		}
		if f.Validation != "" {
			if err := r.checkTag(f.Validation); err != nil {
				problems = append(problems, fmt.Sprintf("field %q has invalid validation %q: %v", f.Name, f.Validation, err))
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	uploaderID := id
	if uploaderID == "" {
		uploaderID = cfg.ID
	}
	return &ConfigurationError{UploaderID: uploaderID, Problems: problems}
}

// checkTag runs the tag once; validator panics on undefined tags.
func (r *Registry) checkTag(tag string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	_ = r.validate.Var("", tag)
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must not be empty", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

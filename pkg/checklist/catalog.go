package checklist

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed checklists.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Templates  map[string]templateFile `yaml:"templates"`
	Exceptions []ExceptionRule         `yaml:"exceptions"`
}

type templateFile struct {
	ActivityKey   string         `yaml:"activity_key"`
	ActivityYears int            `yaml:"activity_years"`
	Items         []TemplateItem `yaml:"items"`
}

// Catalog holds the checklist templates and exception rules for every entity type.
// It is built once at startup and read-only afterwards.
type Catalog struct {
	templates  map[string]Template
	exceptions []ExceptionRule
}

// DefaultCatalog loads the embedded checklist definitions.
func DefaultCatalog(extra ...ExceptionRule) (*Catalog, error) {
	return LoadCatalog(defaultCatalogYAML, extra...)
}

// LoadCatalog parses YAML checklist definitions. Code-defined rules in extra are
// appended after the declarative ones.
func LoadCatalog(data []byte, extra ...ExceptionRule) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse checklist catalog: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, fmt.Errorf("checklist catalog defines no templates")
	}

	templates := make(map[string]Template, len(file.Templates))
	for entityType, tf := range file.Templates {
		entityType = strings.TrimSpace(entityType)
		if entityType == "" {
			return nil, fmt.Errorf("checklist template with empty entity type")
		}
		seen := make(map[string]struct{}, len(tf.Items))
		for i, item := range tf.Items {
			if strings.TrimSpace(item.Key) == "" {
				return nil, fmt.Errorf("checklist %s: item %d has no key", entityType, i)
			}
			if _, dup := seen[item.Key]; dup {
				return nil, fmt.Errorf("checklist %s: duplicate key %q", entityType, item.Key)
			}
			seen[item.Key] = struct{}{}
			if item.Name == "" {
				tf.Items[i].Name = item.Key
			}
		}
		if tf.ActivityYears < 0 {
			return nil, fmt.Errorf("checklist %s: activity_years must not be negative", entityType)
		}
		templates[entityType] = Template{
			EntityType:    entityType,
			Items:         tf.Items,
			ActivityKey:   tf.ActivityKey,
			ActivityYears: tf.ActivityYears,
		}
	}

	rules := make([]ExceptionRule, 0, len(file.Exceptions)+len(extra))
	for i, rule := range file.Exceptions {
		if rule.FieldKey == "" {
			return nil, fmt.Errorf("exception rule %d has no field_key", i)
		}
		if rule.When == nil || rule.When.Field == "" {
			return nil, fmt.Errorf("exception rule %d (%s) has no condition", i, rule.FieldKey)
		}
		rules = append(rules, rule)
	}
	for _, rule := range extra {
		if rule.FieldKey == "" || (rule.Predicate == nil && rule.When == nil) {
			return nil, fmt.Errorf("exception rule for %q needs a key and a predicate", rule.FieldKey)
		}
		rules = append(rules, rule)
	}

	return &Catalog{templates: templates, exceptions: rules}, nil
}

// Template returns the checklist for an entity type.
func (c *Catalog) Template(entityType string) (Template, bool) {
	if c == nil {
		return Template{}, false
	}
	t, ok := c.templates[entityType]
	if !ok {
		return Template{}, false
	}
	items := make([]TemplateItem, len(t.Items))
	copy(items, t.Items)
	t.Items = items
	return t, true
}

// Exceptions returns the rules that can apply to an entity type.
func (c *Catalog) Exceptions(entityType string) []ExceptionRule {
	if c == nil {
		return nil
	}
	rules := make([]ExceptionRule, 0)
	for _, rule := range c.exceptions {
		if rule.EntityType == "" || rule.EntityType == entityType {
			rules = append(rules, rule)
		}
	}
	return rules
}

// EntityTypes lists entity types that have a checklist, sorted.
func (c *Catalog) EntityTypes() []string {
	if c == nil {
		return nil
	}
	types := make([]string, 0, len(c.templates))
	for t := range c.templates {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

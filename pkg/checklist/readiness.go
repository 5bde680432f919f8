package checklist

import (
	"strings"
	"time"
)

// DefaultActivityKey is the entity field holding activity history rows.
const DefaultActivityKey = "activity_history"

// TemplateItem describes one document or field a checklist expects.
type TemplateItem struct {
	Key       string `yaml:"key" json:"key"`
	Name      string `yaml:"name" json:"name"`
	Optional  bool   `yaml:"optional" json:"optional,omitempty"`
	Mandatory bool   `yaml:"mandatory" json:"mandatory,omitempty"`
	File      bool   `yaml:"file" json:"file,omitempty"`
}

// Required reports whether the item blocks readiness. Mandatory wins over optional.
func (i TemplateItem) Required() bool {
	return !i.Optional || i.Mandatory
}

// Template is the ordered checklist for one entity type.
type Template struct {
	EntityType    string         `json:"entity_type"`
	Items         []TemplateItem `json:"items"`
	ActivityKey   string         `json:"activity_key,omitempty"`
	ActivityYears int            `json:"activity_years,omitempty"`
}

// Condition matches an entity by the string value of one of its fields.
type Condition struct {
	Field string   `yaml:"field" json:"field"`
	In    []string `yaml:"in" json:"in,omitempty"`
	NotIn []string `yaml:"not_in" json:"not_in,omitempty"`
}

// Matches evaluates the condition against e.
func (c Condition) Matches(e Entity) bool {
	if c.Field == "" {
		return false
	}
	value := strings.TrimSpace(e.String(c.Field))
	if len(c.In) > 0 && !containsFold(c.In, value) {
		return false
	}
	if len(c.NotIn) > 0 && containsFold(c.NotIn, value) {
		return false
	}
	return len(c.In) > 0 || len(c.NotIn) > 0
}

// Predicate is an arbitrary entity test used by code-defined exception rules.
type Predicate func(Entity) bool

// ExceptionRule waives a single checklist key for entities matching a condition.
type ExceptionRule struct {
	EntityType  string     `yaml:"entity_type" json:"entity_type"`
	FieldKey    string     `yaml:"field_key" json:"field_key"`
	Description string     `yaml:"description" json:"description,omitempty"`
	When        *Condition `yaml:"when" json:"when,omitempty"`
	Predicate   Predicate  `yaml:"-" json:"-"`
}

// Applies reports whether the rule waives key for e.
func (r ExceptionRule) Applies(e Entity, key string) bool {
	if r.FieldKey != key {
		return false
	}
	if r.EntityType != "" && r.EntityType != e.Type {
		return false
	}
	if r.Predicate != nil {
		return r.Predicate(e)
	}
	if r.When != nil {
		return r.When.Matches(e)
	}
	return false
}

// ItemState is the outcome of checking a single template item.
type ItemState string

const (
	ItemSatisfied    ItemState = "satisfied"
	ItemMissing      ItemState = "missing"
	ItemUnreviewed   ItemState = "unreviewed"
	ItemWaived       ItemState = "waived"
	ItemOptional     ItemState = "optional"
	ItemMissingField ItemState = "missing_field"
)

// Blocking reports whether the state prevents readiness.
func (s ItemState) Blocking() bool {
	switch s {
	case ItemSatisfied, ItemWaived, ItemOptional:
		return false
	default:
		return true
	}
}

// ItemResult records the evaluation of one template item.
type ItemResult struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	State    ItemState `json:"state"`
	Required bool      `json:"required"`
	File     bool      `json:"file,omitempty"`
	RecordID string    `json:"record_id,omitempty"`
}

// Result is the full readiness breakdown.
type Result struct {
	Ready           bool         `json:"ready"`
	Items           []ItemResult `json:"items"`
	ActivityChecked bool         `json:"activity_checked"`
	ActivityYears   int          `json:"activity_years,omitempty"`
	Gaps            []GapRange   `json:"gaps"`
}

// Blocking returns the keys that prevent readiness.
func (r Result) Blocking() []string {
	keys := make([]string, 0)
	for _, item := range r.Items {
		if item.State.Blocking() {
			keys = append(keys, item.Key)
		}
	}
	return keys
}

// IsReady reports whether e satisfies every applicable requirement of t.
// It depends only on its arguments; now anchors the activity look-back window.
func IsReady(e Entity, t Template, exceptions []ExceptionRule, now time.Time) bool {
	if len(activityGaps(e, t, exceptions, now)) > 0 {
		return false
	}
	for _, item := range t.Items {
		if evaluateItem(e, item, exceptions).State.Blocking() {
			return false
		}
	}
	return true
}

// Evaluate checks every item of t against e and reports each outcome.
func Evaluate(e Entity, t Template, exceptions []ExceptionRule, now time.Time) Result {
	result := Result{
		Ready:         true,
		Items:         make([]ItemResult, 0, len(t.Items)),
		ActivityYears: t.ActivityYears,
		Gaps:          []GapRange{},
	}
	for _, item := range t.Items {
		res := evaluateItem(e, item, exceptions)
		if res.State.Blocking() {
			result.Ready = false
		}
		result.Items = append(result.Items, res)
	}
	if t.ActivityYears > 0 && !waived(e, activityKey(t), exceptions) {
		result.ActivityChecked = true
		if gaps := activityGaps(e, t, exceptions, now); len(gaps) > 0 {
			result.Gaps = gaps
			result.Ready = false
		}
	}
	return result
}

func evaluateItem(e Entity, item TemplateItem, exceptions []ExceptionRule) ItemResult {
	res := ItemResult{Key: item.Key, Name: item.Name, Required: item.Required(), File: item.File}
	if waived(e, item.Key, exceptions) {
		res.State = ItemWaived
		return res
	}
	if !item.Required() {
		res.State = ItemOptional
		return res
	}
	value := e.Field(item.Key)
	switch value.Kind() {
	case KindMissing:
		res.State = ItemMissingField
	case KindRecord, KindRecordList:
		current := FindHighestID(value)
		switch {
		case len(current) == 0:
			res.State = ItemMissing
		case current.Reviewed():
			res.State = ItemSatisfied
		default:
			res.State = ItemUnreviewed
		}
		res.RecordID = current.String("id")
	default:
		if value.IsEmpty() || (item.File && isArray(value)) {
			res.State = ItemMissing
		} else {
			res.State = ItemSatisfied
		}
	}
	return res
}

// isArray reports a scalar holding a JSON array without any document records.
func isArray(v Value) bool {
	_, ok := v.Interface().([]interface{})
	return ok
}

func activityGaps(e Entity, t Template, exceptions []ExceptionRule, now time.Time) []GapRange {
	if t.ActivityYears <= 0 {
		return nil
	}
	key := activityKey(t)
	if waived(e, key, exceptions) {
		return nil
	}
	return CheckActivityPeriod(ActivityEntriesFrom(e.Field(key)), t.ActivityYears, now)
}

func activityKey(t Template) string {
	if t.ActivityKey != "" {
		return t.ActivityKey
	}
	return DefaultActivityKey
}

func waived(e Entity, key string, exceptions []ExceptionRule) bool {
	for _, rule := range exceptions {
		if rule.Applies(e, key) {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

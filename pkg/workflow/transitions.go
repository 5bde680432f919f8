package workflow

import (
	"sort"

	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
)

// Rule is one edge of an entity type's status graph.
type Rule struct {
	From string `db:"status_from" json:"status_from" validate:"required,max=8"`
	To   string `db:"status_to" json:"status_to" validate:"required,max=8"`
}

// Predicate narrows the candidate set; it never adds statuses.
type Predicate func(candidate string) bool

// Guard is an entity-aware predicate.
type Guard func(e checklist.Entity, candidate string) bool

// StatusSet is an unordered set of status codes.
type StatusSet map[string]struct{}

// Has reports membership.
func (s StatusSet) Has(status string) bool {
	_, ok := s[status]
	return ok
}

// Sorted returns the members in lexical order.
func (s StatusSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for status := range s {
		out = append(out, status)
	}
	sort.Strings(out)
	return out
}

// AllowedNextStatuses returns the statuses selectable from current: every To of a
// rule leaving current that passes extra, plus current itself.
func AllowedNextStatuses(current string, rules []Rule, extra Predicate) StatusSet {
	allowed := StatusSet{current: {}}
	for _, rule := range rules {
		if rule.From != current || rule.To == current {
			continue
		}
		if extra != nil && !extra(rule.To) {
			continue
		}
		allowed[rule.To] = struct{}{}
	}
	return allowed
}

// CanTransition reports whether next is selectable from current.
func CanTransition(current, next string, rules []Rule, extra Predicate) bool {
	return AllowedNextStatuses(current, rules, extra).Has(next)
}

// Bind turns guards into a predicate for one entity. All guards must pass.
func Bind(e checklist.Entity, guards ...Guard) Predicate {
	if len(guards) == 0 {
		return nil
	}
	return func(candidate string) bool {
		for _, guard := range guards {
			if guard != nil && !guard(e, candidate) {
				return false
			}
		}
		return true
	}
}

// KnownStatuses collects every status code mentioned by the rules.
func KnownStatuses(rules []Rule) StatusSet {
	set := make(StatusSet, len(rules))
	for _, rule := range rules {
		set[rule.From] = struct{}{}
		set[rule.To] = struct{}{}
	}
	return set
}

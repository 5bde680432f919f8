package models

import (
	"time"

	"github.com/noah-isme/fleet-backoffice-api/pkg/workflow"
)

// StatusColor is the badge color shown for a status of an entity type.
type StatusColor struct {
	EntityType string `db:"entity_type" json:"-"`
	Status     string `db:"status" json:"status"`
	Color      string `db:"color" json:"color"`
}

// EntitySettings groups the status configuration of one entity type.
type EntitySettings struct {
	EntityType        string          `json:"entity_type"`
	StatusTransitions []workflow.Rule `json:"status_transitions"`
	StatusColors      []StatusColor   `json:"status_colors"`
	LoadedAt          time.Time       `json:"loaded_at"`
}

// ColorFor returns the configured color for status, or "".
func (s EntitySettings) ColorFor(status string) string {
	for _, c := range s.StatusColors {
		if c.Status == status {
			return c.Color
		}
	}
	return ""
}

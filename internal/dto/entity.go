package dto

import "github.com/noah-isme/fleet-backoffice-api/pkg/checklist"

// ChecklistResponse is the readiness evaluation of one entity.
type ChecklistResponse struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Status     string `json:"status"`
	checklist.Result
	Blocking []string `json:"blocking"`
}

// StatusOption is a status the entity may move to.
type StatusOption struct {
	Status  string `json:"status"`
	Color   string `json:"color,omitempty"`
	Current bool   `json:"current"`
}

// StatusOptionsResponse lists the statuses selectable for an entity.
type StatusOptionsResponse struct {
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Current    string         `json:"current"`
	Options    []StatusOption `json:"options"`
}

// UpdateStatusRequest captures PUT /entities/:entityType/:id/status payload.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,max=8"`
}

// UpdateStatusResponse reports a completed status change.
type UpdateStatusResponse struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

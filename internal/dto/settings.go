package dto

import "github.com/noah-isme/fleet-backoffice-api/pkg/workflow"

// StatusColorInput is one status color in a settings update.
type StatusColorInput struct {
	Status string `json:"status" validate:"required,max=8"`
	Color  string `json:"color" validate:"required,hexcolor"`
}

// UpdateSettingsRequest replaces the status configuration of an entity type.
type UpdateSettingsRequest struct {
	StatusTransitions []workflow.Rule    `json:"status_transitions" validate:"dive"`
	StatusColors      []StatusColorInput `json:"status_colors" validate:"dive"`
}

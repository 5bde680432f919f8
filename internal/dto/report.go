package dto

import "github.com/noah-isme/fleet-backoffice-api/internal/models"

// ReadinessReportRequest captures POST /reports/readiness/jobs payload.
type ReadinessReportRequest struct {
	EntityType string              `json:"entityType" validate:"required"`
	Format     models.ReportFormat `json:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}

// ReportFile is a rendered report ready to stream to the client.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

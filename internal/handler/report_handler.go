package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/middleware"
	"github.com/noah-isme/fleet-backoffice-api/internal/service"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/response"
)

type reportService interface {
	Readiness(ctx context.Context, entityType, format string) (*dto.ReportFile, error)
	CreateJob(ctx context.Context, req dto.ReadinessReportRequest, actorID string) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, id, actorID string, viewAll bool) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes readiness reporting endpoints.
type ReportHandler struct {
	reports     reportService
	viewAllJobs []string
}

// NewReportHandler constructs handler. Users holding one of viewAllRoles may
// read any report job, everyone else only their own.
func NewReportHandler(reports reportService, viewAllRoles ...string) *ReportHandler {
	return &ReportHandler{reports: reports, viewAllJobs: viewAllRoles}
}

// Readiness godoc
// @Summary Readiness report
// @Description Renders the readiness of every record of an entity type as CSV, PDF or XLSX.
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param entityType query string true "Entity type"
// @Param format query string false "Output format" Enums(csv, pdf, xlsx)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/readiness [get]
func (h *ReportHandler) Readiness(c *gin.Context) {
	entityType := strings.ToLower(c.Query("entityType"))
	if entityType == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "entityType required"))
		return
	}
	file, err := h.reports.Readiness(c.Request.Context(), entityType, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("X-Report-Rows", fmt.Sprintf("%d", file.Rows))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// CreateJob godoc
// @Summary Queue a readiness report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReadinessReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Router /reports/readiness/jobs [post]
func (h *ReportHandler) CreateJob(c *gin.Context) {
	actor, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReadinessReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	req.EntityType = strings.ToLower(req.EntityType)
	job, err := h.reports.CreateJob(c.Request.Context(), req, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// JobStatus godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/readiness/jobs/{id} [get]
func (h *ReportHandler) JobStatus(c *gin.Context) {
	actor, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.reports.GetStatus(c.Request.Context(), c.Param("id"), actor.UserID, middleware.HasRole(c, h.viewAllJobs...))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a generated report
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.reports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read report"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	})
}

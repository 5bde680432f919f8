package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/service"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/middleware/requestid"
	"github.com/noah-isme/fleet-backoffice-api/pkg/response"
	"github.com/noah-isme/fleet-backoffice-api/pkg/uploader"
)

type uploadService interface {
	Config(id string, overrides uploader.Overrides) (*uploader.Config, error)
	DocumentConfig(documentKey, entityType string) (*uploader.Config, error)
	UploaderIDs() []string
	FieldTypes() []uploader.FieldTypeSpec
	FieldType(id string) (*uploader.FieldTypeSpec, error)
	Upload(ctx context.Context, in service.UploadInput) (*dto.UploadResponse, error)
}

// UploaderHandler serves uploader configurations and document uploads.
type UploaderHandler struct {
	service uploadService
}

// NewUploaderHandler builds a new handler.
func NewUploaderHandler(service uploadService) *UploaderHandler {
	return &UploaderHandler{service: service}
}

// List godoc
// @Summary List uploader ids
// @Tags Uploaders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /uploaders [get]
func (h *UploaderHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.UploaderIDs(), nil)
}

// Config godoc
// @Summary Get uploader config
// @Description Returns a registered uploader config merged with the optional overrides.
// @Tags Uploaders
// @Produce json
// @Param id path string true "Uploader ID"
// @Param entityType query string false "Entity type override"
// @Param endpointIdentifier query string false "Endpoint identifier override"
// @Param apiEndpoint query string false "API endpoint override"
// @Param mode query string false "Mode override" Enums(immediate, form-attached, multiple)
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /uploaders/{id} [get]
func (h *UploaderHandler) Config(c *gin.Context) {
	cfg, err := h.service.Config(c.Param("id"), uploader.Overrides{
		EntityType:         strings.ToLower(c.Query("entityType")),
		EndpointIdentifier: c.Query("endpointIdentifier"),
		APIEndpoint:        c.Query("apiEndpoint"),
		Mode:               uploader.Mode(c.Query("mode")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// DocumentConfig godoc
// @Summary Get uploader config for a document type
// @Tags Uploaders
// @Produce json
// @Param documentKey path string true "Document key"
// @Param entityType query string false "Entity type"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /uploaders/documents/{documentKey} [get]
func (h *UploaderHandler) DocumentConfig(c *gin.Context) {
	cfg, err := h.service.DocumentConfig(c.Param("documentKey"), strings.ToLower(c.Query("entityType")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// FieldTypes godoc
// @Summary List field types
// @Tags Uploaders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /field-types [get]
func (h *UploaderHandler) FieldTypes(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.FieldTypes(), nil)
}

// FieldType godoc
// @Summary Get a field type
// @Tags Uploaders
// @Produce json
// @Param id path string true "Field type"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /field-types/{id} [get]
func (h *UploaderHandler) FieldType(c *gin.Context) {
	spec, err := h.service.FieldType(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, spec, nil)
}

// Upload godoc
// @Summary Upload a document
// @Description Validates a multipart document form against its uploader config and forwards it to the record backend.
// @Tags Uploaders
// @Accept multipart/form-data
// @Produce json
// @Param entityType path string true "Entity type"
// @Param id path string true "Record ID"
// @Param documentKey path string true "Document key"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /entities/{entityType}/{id}/documents/{documentKey} [post]
func (h *UploaderHandler) Upload(c *gin.Context) {
	entityType, id, err := entityRef(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "a multipart form is required"))
		return
	}
	defer func() { _ = form.RemoveAll() }()

	values := make(map[string]string, len(form.Value))
	for k, v := range form.Value {
		if len(v) > 0 {
			values[k] = v[0]
		}
	}
	result, err := h.service.Upload(c.Request.Context(), service.UploadInput{
		RequestID:   requestid.Value(c),
		EntityType:  entityType,
		EntityID:    id,
		DocumentKey: c.Param("documentKey"),
		Submission:  uploader.Submission{Values: values, Files: form.File},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

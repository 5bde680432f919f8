package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/pkg/backend"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/uploader"
)

type uploadBackend interface {
	Upload(ctx context.Context, req backend.UploadRequest) (json.RawMessage, error)
}

// UploadInput is a document form addressed to one entity.
type UploadInput struct {
	RequestID   string
	EntityType  string
	EntityID    string
	DocumentKey string
	Submission  uploader.Submission
}

// UploadService resolves uploader configs and forwards validated documents to the backend.
type UploadService struct {
	registry    *uploader.Registry
	backend     uploadBackend
	metrics     *MetricsService
	logger      *zap.Logger
	maxFileSize int64
}

// NewUploadService constructs the service. maxFileSize <= 0 disables the size check.
func NewUploadService(registry *uploader.Registry, backend uploadBackend, metrics *MetricsService, logger *zap.Logger, maxFileSize int64) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{registry: registry, backend: backend, metrics: metrics, logger: logger, maxFileSize: maxFileSize}
}

// Config returns a registered uploader config with overrides applied.
func (s *UploadService) Config(id string, overrides uploader.Overrides) (*uploader.Config, error) {
	if overrides.EntityType != "" {
		if err := checkEntityType(overrides.EntityType); err != nil {
			return nil, err
		}
	}
	cfg, err := s.registry.Get(id, overrides)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid uploader overrides")
	}
	if cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("uploader %q not found", id))
	}
	return cfg, nil
}

// DocumentConfig returns the uploader config used for a document key.
func (s *UploadService) DocumentConfig(documentKey, entityType string) (*uploader.Config, error) {
	if strings.TrimSpace(documentKey) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document key is required")
	}
	if entityType != "" {
		if err := checkEntityType(entityType); err != nil {
			return nil, err
		}
	}
	cfg, err := s.registry.ForDocument(documentKey, entityType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "uploader config is invalid")
	}
	if cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no uploader for document %q", documentKey))
	}
	return cfg, nil
}

// UploaderIDs lists registered uploader ids.
func (s *UploadService) UploaderIDs() []string {
	return s.registry.IDs()
}

// FieldTypes lists every supported field type.
func (s *UploadService) FieldTypes() []uploader.FieldTypeSpec {
	return uploader.FieldTypes()
}

// FieldType returns one field type or a not-found error.
func (s *UploadService) FieldType(id string) (*uploader.FieldTypeSpec, error) {
	spec := s.registry.FieldType(id)
	if spec == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("field type %q not found", id))
	}
	return spec, nil
}

// Upload validates the form against the document's uploader config and forwards it.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*dto.UploadResponse, error) {
	if strings.TrimSpace(in.EntityID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entity id is required")
	}
	cfg, err := s.DocumentConfig(in.DocumentKey, in.EntityType)
	if err != nil {
		return nil, err
	}
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}
	logger := s.logger.With(
		zap.String("request_id", in.RequestID),
		zap.String("uploader_id", cfg.ID),
		zap.String("entity_type", in.EntityType),
		zap.String("entity_id", in.EntityID),
	)

	fieldErrs := s.checkSizes(in.Submission)
	clean, validationErrs := s.registry.Validate(cfg, in.Submission)
	for field, msg := range validationErrs {
		if _, exists := fieldErrs[field]; !exists {
			fieldErrs[field] = msg
		}
	}
	if len(fieldErrs) > 0 {
		s.metrics.RecordUpload(cfg.ID, "rejected")
		logger.Info("upload rejected", zap.Any("errors", fieldErrs))
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "upload rejected", fieldErrs)
	}

	files := forwardFiles(clean.Files)
	raw, err := s.backend.Upload(ctx, backend.UploadRequest{
		APIEndpoint:        cfg.APIEndpoint,
		EntityType:         in.EntityType,
		EntityID:           in.EntityID,
		EndpointIdentifier: cfg.EndpointIdentifier,
		Values:             clean.Values,
		Files:              files,
	})
	if err != nil {
		s.metrics.RecordUpload(cfg.ID, "failed")
		logger.Warn("backend upload failed", zap.Error(err))
		return nil, err
	}
	s.metrics.RecordUpload(cfg.ID, "forwarded")
	logger.Info("document forwarded", zap.Int("files", len(files)))

	return &dto.UploadResponse{
		RequestID:          in.RequestID,
		UploaderID:         cfg.ID,
		EntityType:         in.EntityType,
		EntityID:           in.EntityID,
		EndpointIdentifier: cfg.EndpointIdentifier,
		Files:              len(files),
		Backend:            raw,
	}, nil
}

func (s *UploadService) checkSizes(sub uploader.Submission) map[string]string {
	errs := make(map[string]string)
	if s.maxFileSize <= 0 {
		return errs
	}
	for field, headers := range sub.Files {
		for _, fh := range headers {
			if fh != nil && fh.Size > s.maxFileSize {
				errs[field] = fmt.Sprintf("%s exceeds the %d byte limit", fh.Filename, s.maxFileSize)
				break
			}
		}
	}
	return errs
}

func forwardFiles(files map[string][]*multipart.FileHeader) []backend.File {
	fields := make([]string, 0, len(files))
	for field := range files {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]backend.File, 0)
	for _, field := range fields {
		for _, fh := range files[field] {
			header := fh
			out = append(out, backend.File{
				Field:       field,
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Open: func() (io.ReadCloser, error) {
					f, err := header.Open()
					if err != nil {
						return nil, err
					}
					return f, nil
				},
			})
		}
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/workflow"
)

type statusBackend interface {
	GetEntity(ctx context.Context, entityType, id string) (*checklist.Entity, error)
	UpdateStatus(ctx context.Context, entityType, id, status string) error
}

type settingsProvider interface {
	Get(ctx context.Context, entityType string) (*models.EntitySettings, bool, error)
}

type readinessChecker interface {
	IsReady(e checklist.Entity) bool
}

// StatusService lists and applies status transitions for backend entities.
type StatusService struct {
	backend   statusBackend
	settings  settingsProvider
	readiness readinessChecker
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewStatusService constructs the service. readiness may be nil to skip checklist gating.
func NewStatusService(backend statusBackend, settings settingsProvider, readiness readinessChecker, metrics *MetricsService, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{backend: backend, settings: settings, readiness: readiness, metrics: metrics, logger: logger}
}

// Options returns the statuses the entity may move to, current first.
func (s *StatusService) Options(ctx context.Context, entityType, id string) (*dto.StatusOptionsResponse, error) {
	entity, settings, err := s.load(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	allowed := s.allowed(*entity, settings)

	options := []dto.StatusOption{{
		Status:  entity.Status,
		Color:   settings.ColorFor(entity.Status),
		Current: true,
	}}
	for _, status := range allowed.Sorted() {
		if status == entity.Status {
			continue
		}
		options = append(options, dto.StatusOption{Status: status, Color: settings.ColorFor(status)})
	}
	return &dto.StatusOptionsResponse{
		EntityType: entityType,
		EntityID:   entity.ID,
		Current:    entity.Status,
		Options:    options,
	}, nil
}

// Transition moves an entity to status when the transition rules and guards allow it.
// Re-selecting the current status is accepted without touching the backend.
func (s *StatusService) Transition(ctx context.Context, entityType, id, status string, actor *models.JWTClaims) (*dto.UpdateStatusResponse, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status is required")
	}
	entity, settings, err := s.load(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.UpdateStatusResponse{EntityType: entityType, EntityID: entity.ID, From: entity.Status, To: status}
	if status == entity.Status {
		return resp, nil
	}

	if !s.allowed(*entity, settings).Has(status) {
		s.metrics.RecordStatusTransition(entityType, "denied")
		return nil, appErrors.Clone(appErrors.ErrTransitionDenied,
			fmt.Sprintf("%s %s cannot move from %s to %s", entityType, entity.ID, entity.Status, status))
	}

	if err := s.backend.UpdateStatus(ctx, entityType, entity.ID, status); err != nil {
		s.metrics.RecordStatusTransition(entityType, "failed")
		return nil, err
	}
	s.metrics.RecordStatusTransition(entityType, "applied")

	fields := []zap.Field{
		zap.String("entity_type", entityType),
		zap.String("entity_id", entity.ID),
		zap.String("from", entity.Status),
		zap.String("to", status),
	}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.UserID))
	}
	s.logger.Info("entity status changed", fields...)
	return resp, nil
}

func (s *StatusService) load(ctx context.Context, entityType, id string) (*checklist.Entity, *models.EntitySettings, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, nil, err
	}
	settings, _, err := s.settings.Get(ctx, entityType)
	if err != nil {
		return nil, nil, err
	}
	entity, err := s.backend.GetEntity(ctx, entityType, id)
	if err != nil {
		return nil, nil, err
	}
	return entity, settings, nil
}

func (s *StatusService) allowed(e checklist.Entity, settings *models.EntitySettings) workflow.StatusSet {
	var ready func(checklist.Entity) bool
	if s.readiness != nil {
		ready = s.readiness.IsReady
	}
	extra := workflow.Bind(e, statusGuards(e.Type, ready)...)
	return workflow.AllowedNextStatuses(e.Status, settings.StatusTransitions, extra)
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
)

type entitySource interface {
	GetEntity(ctx context.Context, entityType, id string) (*checklist.Entity, error)
}

// ChecklistService evaluates entity readiness against the checklist catalog.
type ChecklistService struct {
	catalog  *checklist.Catalog
	entities entitySource
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewChecklistService constructs the service.
func NewChecklistService(catalog *checklist.Catalog, entities entitySource, metrics *MetricsService, logger *zap.Logger) *ChecklistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChecklistService{catalog: catalog, entities: entities, metrics: metrics, logger: logger, now: time.Now}
}

// HasChecklist reports whether entityType has a readiness template.
func (s *ChecklistService) HasChecklist(entityType string) bool {
	_, ok := s.catalog.Template(entityType)
	return ok
}

// Evaluate fetches an entity from the backend and evaluates its checklist.
func (s *ChecklistService) Evaluate(ctx context.Context, entityType, id string) (*dto.ChecklistResponse, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, err
	}
	if !s.HasChecklist(entityType) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no checklist defined for %s", entityType))
	}
	entity, err := s.entities.GetEntity(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	result, _ := s.EvaluateEntity(*entity)
	return &dto.ChecklistResponse{
		EntityType: entityType,
		EntityID:   entity.ID,
		Status:     entity.Status,
		Result:     result,
		Blocking:   result.Blocking(),
	}, nil
}

// EvaluateEntity runs the full evaluation for an already fetched entity. The
// second return is false when the entity type has no checklist.
func (s *ChecklistService) EvaluateEntity(e checklist.Entity) (checklist.Result, bool) {
	tmpl, ok := s.catalog.Template(e.Type)
	if !ok {
		return checklist.Result{Ready: true, Items: []checklist.ItemResult{}, Gaps: []checklist.GapRange{}}, false
	}
	result := checklist.Evaluate(e, tmpl, s.catalog.Exceptions(e.Type), s.now())
	s.metrics.RecordReadiness(e.Type, result.Ready)
	if missing := missingFields(result); len(missing) > 0 {
		s.logger.Warn("checklist references fields the backend did not return",
			zap.String("entity_type", e.Type),
			zap.String("entity_id", e.ID),
			zap.Strings("fields", missing),
		)
	}
	return result, true
}

// IsReady reports readiness of an entity. Types without a checklist are ready.
func (s *ChecklistService) IsReady(e checklist.Entity) bool {
	tmpl, ok := s.catalog.Template(e.Type)
	if !ok {
		return true
	}
	return checklist.IsReady(e, tmpl, s.catalog.Exceptions(e.Type), s.now())
}

func missingFields(result checklist.Result) []string {
	var keys []string
	for _, item := range result.Items {
		if item.State == checklist.ItemMissingField {
			keys = append(keys, item.Key)
		}
	}
	return keys
}

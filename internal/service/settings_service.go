package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/pkg/backend"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/workflow"
)

type settingsStore interface {
	ListTransitions(ctx context.Context, entityType string) ([]workflow.Rule, error)
	ListColors(ctx context.Context, entityType string) ([]models.StatusColor, error)
	Replace(ctx context.Context, entityType string, rules []workflow.Rule, colors []models.StatusColor) error
}

type settingsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SettingsService serves the status transitions and colors of each entity type.
type SettingsService struct {
	store     settingsStore
	cache     settingsCache
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewSettingsService constructs the service. cache may be nil.
func NewSettingsService(store settingsStore, cache settingsCache, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: store, cache: cache, validator: validate, logger: logger, ttl: ttl, now: time.Now}
}

func settingsCacheKey(entityType string) string {
	return "settings:" + entityType
}

// Get returns the settings of an entity type and whether they came from cache.
func (s *SettingsService) Get(ctx context.Context, entityType string) (*models.EntitySettings, bool, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, false, err
	}

	key := settingsCacheKey(entityType)
	if s.cache != nil {
		var cached models.EntitySettings
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	rules, err := s.store.ListTransitions(ctx, entityType)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status transitions")
	}
	colors, err := s.store.ListColors(ctx, entityType)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status colors")
	}
	settings := &models.EntitySettings{
		EntityType:        entityType,
		StatusTransitions: rules,
		StatusColors:      colors,
		LoadedAt:          s.now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, settings, s.ttl); err != nil {
			s.logger.Warn("failed to cache settings", zap.String("entity_type", entityType), zap.Error(err))
		}
	}
	return settings, false, nil
}

// Update replaces the status configuration of an entity type.
func (s *SettingsService) Update(ctx context.Context, entityType string, req dto.UpdateSettingsRequest) (*models.EntitySettings, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	rules := make([]workflow.Rule, 0, len(req.StatusTransitions))
	seenRules := make(map[workflow.Rule]struct{}, len(req.StatusTransitions))
	for _, rule := range req.StatusTransitions {
		rule.From = strings.TrimSpace(rule.From)
		rule.To = strings.TrimSpace(rule.To)
		if rule.From == rule.To {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("transition %s->%s does not change status", rule.From, rule.To))
		}
		if _, dup := seenRules[rule]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate transition %s->%s", rule.From, rule.To))
		}
		seenRules[rule] = struct{}{}
		rules = append(rules, rule)
	}

	colors := make([]models.StatusColor, 0, len(req.StatusColors))
	seenColors := make(map[string]struct{}, len(req.StatusColors))
	for _, c := range req.StatusColors {
		status := strings.TrimSpace(c.Status)
		if _, dup := seenColors[status]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate color for status %s", status))
		}
		seenColors[status] = struct{}{}
		colors = append(colors, models.StatusColor{EntityType: entityType, Status: status, Color: strings.ToLower(c.Color)})
	}

	if err := s.store.Replace(ctx, entityType, rules, colors); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, settingsCacheKey(entityType)); err != nil {
			s.logger.Warn("failed to invalidate settings cache", zap.String("entity_type", entityType), zap.Error(err))
		}
	}

	s.logger.Info("status settings replaced",
		zap.String("entity_type", entityType),
		zap.Int("transitions", len(rules)),
		zap.Int("colors", len(colors)),
	)
	return &models.EntitySettings{
		EntityType:        entityType,
		StatusTransitions: rules,
		StatusColors:      colors,
		LoadedAt:          s.now().UTC(),
	}, nil
}

func checkEntityType(entityType string) error {
	if _, ok := backend.Collection(entityType); !ok {
		return appErrors.Clone(appErrors.ErrUnsupportedEntity, fmt.Sprintf("unsupported entity type %q", entityType))
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/workflow"
)

type settingsStoreStub struct {
	rules       map[string][]workflow.Rule
	colors      map[string][]models.StatusColor
	listCalls   int
	replaced    []workflow.Rule
	replacedCol []models.StatusColor
	err         error
}

func (s *settingsStoreStub) ListTransitions(_ context.Context, entityType string) ([]workflow.Rule, error) {
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rules[entityType], nil
}

func (s *settingsStoreStub) ListColors(_ context.Context, entityType string) ([]models.StatusColor, error) {
	return s.colors[entityType], nil
}

func (s *settingsStoreStub) Replace(_ context.Context, _ string, rules []workflow.Rule, colors []models.StatusColor) error {
	s.replaced = rules
	s.replacedCol = colors
	return s.err
}

func newSettingsFixture() (*SettingsService, *settingsStoreStub, *memoryCacheRepo) {
	store := &settingsStoreStub{
		rules:  map[string][]workflow.Rule{"driver": {{From: "NW", To: "AC"}, {From: "AC", To: "TR"}}},
		colors: map[string][]models.StatusColor{"driver": {{Status: "AC", Color: "#00aa00"}}},
	}
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	return NewSettingsService(store, cache, nil, nil, time.Minute), store, repo
}

func TestSettingsServiceGetCachesResult(t *testing.T) {
	svc, store, _ := newSettingsFixture()

	first, hit, err := svc.Get(context.Background(), "driver")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, first.StatusTransitions, 2)
	assert.Equal(t, "#00aa00", first.ColorFor("AC"))

	second, hit, err := svc.Get(context.Background(), "driver")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.StatusTransitions, second.StatusTransitions)
	assert.Equal(t, 1, store.listCalls)
}

func TestSettingsServiceGetUnsupportedType(t *testing.T) {
	svc, _, _ := newSettingsFixture()
	_, _, err := svc.Get(context.Background(), "spaceship")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnsupportedEntity))
}

func TestSettingsServiceGetStoreError(t *testing.T) {
	svc, store, _ := newSettingsFixture()
	store.err = errors.New("db down")
	_, _, err := svc.Get(context.Background(), "truck")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestSettingsServiceUpdateInvalidatesCache(t *testing.T) {
	svc, store, repo := newSettingsFixture()
	_, _, err := svc.Get(context.Background(), "driver")
	require.NoError(t, err)
	require.Contains(t, repo.data, "settings:driver")

	updated, err := svc.Update(context.Background(), "driver", dto.UpdateSettingsRequest{
		StatusTransitions: []workflow.Rule{{From: "NW", To: "AR"}},
		StatusColors:      []dto.StatusColorInput{{Status: "AR", Color: "#FFAA00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []workflow.Rule{{From: "NW", To: "AR"}}, store.replaced)
	assert.Equal(t, "#ffaa00", updated.ColorFor("AR"))
	assert.NotContains(t, repo.data, "settings:driver")
}

func TestSettingsServiceUpdateValidation(t *testing.T) {
	svc, _, _ := newSettingsFixture()
	cases := map[string]dto.UpdateSettingsRequest{
		"bad color":   {StatusColors: []dto.StatusColorInput{{Status: "AC", Color: "green"}}},
		"empty from":  {StatusTransitions: []workflow.Rule{{From: "", To: "AC"}}},
		"self loop":   {StatusTransitions: []workflow.Rule{{From: "AC", To: "AC"}}},
		"duplicate":   {StatusTransitions: []workflow.Rule{{From: "NW", To: "AC"}, {From: "NW", To: "AC"}}},
		"dup color":   {StatusColors: []dto.StatusColorInput{{Status: "AC", Color: "#000"}, {Status: "AC", Color: "#fff"}}},
		"long status": {StatusTransitions: []workflow.Rule{{From: "NEWDRIVER1", To: "AC"}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), "driver", req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

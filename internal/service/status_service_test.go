package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-backoffice-api/internal/dto"
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/workflow"
)

type settingsProviderStub struct {
	settings map[string]*models.EntitySettings
	err      error
}

func (s *settingsProviderStub) Get(_ context.Context, entityType string) (*models.EntitySettings, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	if found, ok := s.settings[entityType]; ok {
		return found, false, nil
	}
	return &models.EntitySettings{EntityType: entityType}, false, nil
}

func driverSettings() *settingsProviderStub {
	return &settingsProviderStub{settings: map[string]*models.EntitySettings{
		"driver": {
			EntityType: "driver",
			StatusTransitions: []workflow.Rule{
				{From: "NW", To: "AC"},
				{From: "NW", To: "RJ"},
				{From: "NW", To: "TR"},
				{From: "AC", To: "TR"},
			},
			StatusColors: []models.StatusColor{{Status: "AC", Color: "#00aa00"}, {Status: "NW", Color: "#999999"}},
		},
	}}
}

func newStatusFixture(t *testing.T, entities ...checklist.Entity) (*StatusService, *backendStub) {
	backend := newBackendStub(entities...)
	checklists := NewChecklistService(testCatalog(t), backend, nil, nil)
	return NewStatusService(backend, driverSettings(), checklists, NewMetricsService(), nil), backend
}

func statuses(options []dto.StatusOption) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.Status
	}
	return out
}

func TestStatusOptionsWithReviewedMentorForm(t *testing.T) {
	svc, _ := newStatusFixture(t, readyDriver("1", "NW", true))

	resp, err := svc.Options(context.Background(), "driver", "1")
	require.NoError(t, err)
	assert.Equal(t, "NW", resp.Current)
	assert.Equal(t, []string{"NW", "AC", "RJ"}, statuses(resp.Options))
	assert.True(t, resp.Options[0].Current)
	assert.Equal(t, "#999999", resp.Options[0].Color)
	assert.Equal(t, "#00aa00", resp.Options[1].Color)
}

func TestStatusOptionsWithoutMentorReview(t *testing.T) {
	svc, _ := newStatusFixture(t, readyDriver("1", "NW", false))

	resp, err := svc.Options(context.Background(), "driver", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"NW", "RJ", "TR"}, statuses(resp.Options))
}

func TestStatusOptionsNotReadyBlocksActivation(t *testing.T) {
	driver := readyDriver("1", "NW", true)
	driver.Fields["licenses"] = checklist.List()
	svc, _ := newStatusFixture(t, driver)

	resp, err := svc.Options(context.Background(), "driver", "1")
	require.NoError(t, err)
	assert.NotContains(t, statuses(resp.Options), "AC")
}

func TestTransitionApplied(t *testing.T) {
	svc, backend := newStatusFixture(t, readyDriver("1", "NW", true))

	resp, err := svc.Transition(context.Background(), "driver", "1", "AC", &models.JWTClaims{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "NW", resp.From)
	assert.Equal(t, "AC", resp.To)
	assert.Equal(t, []string{"driver/1=AC"}, backend.updates)
}

func TestTransitionDenied(t *testing.T) {
	svc, backend := newStatusFixture(t, readyDriver("1", "AC", true))

	_, err := svc.Transition(context.Background(), "driver", "1", "TR", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrTransitionDenied))
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
	assert.Empty(t, backend.updates)
}

func TestTransitionToCurrentIsNoop(t *testing.T) {
	svc, backend := newStatusFixture(t, readyDriver("1", "NW", false))

	resp, err := svc.Transition(context.Background(), "driver", "1", "NW", nil)
	require.NoError(t, err)
	assert.Equal(t, resp.From, resp.To)
	assert.Empty(t, backend.updates)
}

func TestTransitionUnknownRulesOnlyAllowCurrent(t *testing.T) {
	incident := checklist.Entity{Type: "incident", ID: "4", Status: "OP"}
	svc, _ := newStatusFixture(t, incident)

	resp, err := svc.Options(context.Background(), "incident", "4")
	require.NoError(t, err)
	assert.Equal(t, []string{"OP"}, statuses(resp.Options))

	_, err = svc.Transition(context.Background(), "incident", "4", "CL", nil)
	assert.True(t, errors.Is(err, appErrors.ErrTransitionDenied))
}

func TestTransitionPropagatesBackendErrors(t *testing.T) {
	svc, backend := newStatusFixture(t, readyDriver("1", "NW", true))
	backend.err = appErrors.Clone(appErrors.ErrBadGateway, "record backend returned 503")

	_, err := svc.Transition(context.Background(), "driver", "1", "AC", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)

	_, err = svc.Transition(context.Background(), "driver", "1", " ", nil)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

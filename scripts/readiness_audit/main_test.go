package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
)

const auditCatalog = `
templates:
  truck:
    items:
      - {key: vin, name: VIN}
`

type listerStub struct {
	entities []checklist.Entity
	err      error
}

func (l listerStub) ListEntities(_ context.Context, _ string, _ int) ([]checklist.Entity, error) {
	return l.entities, l.err
}

func truck(id, status, vin string) checklist.Entity {
	fields := map[string]checklist.Value{}
	if vin != "" {
		fields["vin"] = checklist.Scalar(vin)
	}
	return checklist.Entity{Type: "truck", ID: id, Status: status, Fields: fields}
}

func TestAuditTypeClassifiesMismatches(t *testing.T) {
	catalog, err := checklist.LoadCatalog([]byte(auditCatalog))
	require.NoError(t, err)

	lister := listerStub{entities: []checklist.Entity{
		truck("1", "AC", "1FUJ"),
		truck("2", "AC", ""),
		truck("3", "NW", "1FUJ"),
		truck("4", "NW", ""),
	}}
	summary := auditType(context.Background(), lister, catalog, "truck", 0, time.Now())

	require.NoError(t, summary.Error)
	assert.Equal(t, 4, summary.Records)
	require.Len(t, summary.Findings, 2)
	assert.Equal(t, "2", summary.Findings[0].ID)
	assert.True(t, summary.Findings[0].Critical)
	assert.Equal(t, []string{"vin"}, summary.Findings[0].Blocking)
	assert.Equal(t, "3", summary.Findings[1].ID)
	assert.False(t, summary.Findings[1].Critical)
}

func TestAuditTypeErrors(t *testing.T) {
	catalog, err := checklist.LoadCatalog([]byte(auditCatalog))
	require.NoError(t, err)

	summary := auditType(context.Background(), listerStub{}, catalog, "incident", 0, time.Now())
	assert.Error(t, summary.Error)

	summary = auditType(context.Background(), listerStub{err: errors.New("boom")}, catalog, "truck", 0, time.Now())
	assert.ErrorContains(t, summary.Error, "list truck")
}

func TestSplitTypes(t *testing.T) {
	assert.Equal(t, []string{"driver", "truck"}, splitTypes(" Driver, ,truck"))
}

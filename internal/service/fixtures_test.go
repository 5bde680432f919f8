package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
)

const testCatalogYAML = `
templates:
  driver:
    items:
      - {key: first_name, name: First Name}
      - {key: licenses, name: Driver Licence, file: true, mandatory: true}
      - {key: log_books, name: Log Books, file: true, optional: true}
  truck:
    items:
      - {key: vin, name: VIN}
exceptions:
  - entity_type: truck
    field_key: vin
    description: Leased units report the VIN through the lessor
    when: {field: ownership, in: [LEASED]}
`

func testCatalog(t *testing.T) *checklist.Catalog {
	t.Helper()
	catalog, err := checklist.LoadCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)
	return catalog
}

func readyDriver(id, status string, mentorReviewed bool) checklist.Entity {
	return checklist.Entity{
		Type:   "driver",
		ID:     id,
		Status: status,
		Fields: map[string]checklist.Value{
			"first_name":   checklist.Scalar("Ada"),
			"licenses":     checklist.List(checklist.Record{"id": 1.0, "was_reviewed": false}, checklist.Record{"id": 2.0, "was_reviewed": true}),
			"log_books":    checklist.List(),
			"mentor_forms": checklist.List(checklist.Record{"id": 5.0, "was_reviewed": mentorReviewed}),
		},
	}
}

type backendStub struct {
	entities map[string]checklist.Entity
	updates  []string
	err      error
}

func newBackendStub(entities ...checklist.Entity) *backendStub {
	b := &backendStub{entities: map[string]checklist.Entity{}}
	for _, e := range entities {
		b.entities[e.Type+"/"+e.ID] = e
	}
	return b
}

func (b *backendStub) GetEntity(_ context.Context, entityType, id string) (*checklist.Entity, error) {
	if b.err != nil {
		return nil, b.err
	}
	e, ok := b.entities[entityType+"/"+id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found in backend")
	}
	return &e, nil
}

func (b *backendStub) ListEntities(_ context.Context, entityType string, limit int) ([]checklist.Entity, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := make([]checklist.Entity, 0)
	for _, e := range b.entities {
		if e.Type == entityType {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *backendStub) UpdateStatus(_ context.Context, entityType, id, status string) error {
	if b.err != nil {
		return b.err
	}
	b.updates = append(b.updates, entityType+"/"+id+"="+status)
	return nil
}

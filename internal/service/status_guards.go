package service

import (
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/pkg/checklist"
	"github.com/noah-isme/fleet-backoffice-api/pkg/workflow"
)

const (
	statusActive     = "AC"
	statusTerminated = "TR"
	mentorFormsKey   = "mentor_forms"
)

// readinessGated lists entity types that cannot become active until their checklist passes.
var readinessGated = map[string]bool{
	models.EntityDriver:    true,
	models.EntityEmployee:  true,
	models.EntityTruck:     true,
	models.EntityEquipment: true,
}

// mentorFormGuard: a driver becomes active only with a reviewed mentor form,
// and a driver whose mentor form was reviewed can no longer be terminated.
func mentorFormGuard(e checklist.Entity, candidate string) bool {
	reviewed := checklist.FindHighestID(e.Field(mentorFormsKey)).Reviewed()
	switch candidate {
	case statusActive:
		return reviewed
	case statusTerminated:
		return !reviewed
	default:
		return true
	}
}

func readinessGuard(ready func(checklist.Entity) bool) workflow.Guard {
	return func(e checklist.Entity, candidate string) bool {
		if candidate != statusActive {
			return true
		}
		return ready(e)
	}
}

// statusGuards returns the entity-aware guards for an entity type.
func statusGuards(entityType string, ready func(checklist.Entity) bool) []workflow.Guard {
	guards := make([]workflow.Guard, 0, 2)
	if entityType == models.EntityDriver {
		guards = append(guards, mentorFormGuard)
	}
	if readinessGated[entityType] && ready != nil {
		guards = append(guards, readinessGuard(ready))
	}
	return guards
}

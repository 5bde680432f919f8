package models

// Entity types served by the record backend.
const (
	EntityDriver    = "driver"
	EntityEmployee  = "employee"
	EntityTruck     = "truck"
	EntityEquipment = "equipment"
	EntityIncident  = "incident"
	EntityViolation = "violation"
	EntityWCBClaim  = "wcb_claim"
)

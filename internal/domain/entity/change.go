// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies which kind of record a pending change mutates.
// The set is closed; the reconciler routes remote writes on it.
type EntityType string

const (
	EntityMedication     EntityType = "medication"
	EntitySchedule       EntityType = "schedule"
	EntityAdherenceEvent EntityType = "adherenceEvent"
	EntityEmergencyEvent EntityType = "emergencyEvent"
)

// EntityTypes lists every valid entity type, in replay-group order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityMedication,
		EntitySchedule,
		EntityAdherenceEvent,
		EntityEmergencyEvent,
	}
}

// Valid reports whether the entity type belongs to the closed tag set.
func (t EntityType) Valid() bool {
	switch t {
	case EntityMedication, EntitySchedule, EntityAdherenceEvent, EntityEmergencyEvent:
		return true
	}

	return false
}

// PendingChange is a locally queued, not-yet-confirmed mutation awaiting remote
// persistence. It is immutable once created except for the Synced flag; a later
// edit of the same record is a new PendingChange appended after it, so replay in
// creation order yields last-write-wins on the server.
type PendingChange struct {
	ID         uuid.UUID      `json:"id"`          // Unique identifier, generated at enqueue time.
	EntityType EntityType     `json:"entity_type"` // Which record kind the payload mutates.
	Payload    map[string]any `json:"payload"`     // Opaque field/value mapping, specific to EntityType.
	CreatedAt  time.Time      `json:"created_at"`  // Enqueue time; orders replay within a type.
	Synced     bool           `json:"synced"`      // False until the reconciler confirms remote acceptance.
}

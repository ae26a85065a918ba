// Package audit records who performed destructive or reversing actions
// and why. The log is append-only and write-only from the core: entries
// are never read back, updated, or deleted through this package.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry maps to the audit_log table.
type Entry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ActorID    uuid.UUID `db:"actor_id" json:"actor_id"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   uuid.UUID `db:"entity_id" json:"entity_id"`
	Action     string    `db:"action" json:"action"`
	Detail     string    `db:"detail" json:"detail"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Entity types recorded by the core.
const (
	EntityAppointment     = "appointment"
	EntityTherapyPlan     = "therapy_plan"
	EntityCompletionEvent = "completion_event"
)

// Actions recorded by the core.
const (
	ActionCancel = "cancel"
	ActionUndo   = "undo"
)

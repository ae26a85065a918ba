package completion

import (
	"time"

	"github.com/google/uuid"
)

// Bounds enforced on the optional self-report scores.
const (
	MinPainLevel    = 0
	MaxPainLevel    = 10
	MinSatisfaction = 1
	MaxSatisfaction = 5
)

// Event maps to the completion_events table: one patient's record of
// performing an assigned exercise. An event has two states, recorded and
// undone; once undone it is immutable.
type Event struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PlanExerciseID uuid.UUID  `db:"plan_exercise_id" json:"plan_exercise_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	CompletedAt    time.Time  `db:"completed_at" json:"completed_at"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	PainLevel      *int       `db:"pain_level" json:"pain_level,omitempty"`
	Satisfaction   *int       `db:"satisfaction" json:"satisfaction,omitempty"`
	MediaID        *string    `db:"media_id" json:"media_id,omitempty"`
	Undone         bool       `db:"undone" json:"undone"`
	UndoneAt       *time.Time `db:"undone_at" json:"undone_at,omitempty"`
	UndoneReason   *string    `db:"undone_reason" json:"undone_reason,omitempty"`
	UndoneBy       *uuid.UUID `db:"undone_by" json:"undone_by,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

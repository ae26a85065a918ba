package therapyplan

import (
	"time"

	"github.com/google/uuid"
)

// PlanStatus is the coarse lifecycle of a therapy plan.
type PlanStatus string

const (
	PlanActive    PlanStatus = "ACTIVE"
	PlanCompleted PlanStatus = "COMPLETED"
	PlanCancelled PlanStatus = "CANCELLED"
)

// Plan maps to the therapy_plans table. Version starts at 1 and moves
// only through ledger-significant mutations; every increment beyond 1
// corresponds to exactly one PlanVersion row.
type Plan struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PractitionerID uuid.UUID  `db:"practitioner_id" json:"practitioner_id"`
	Status         PlanStatus `db:"status" json:"status"`
	Version        int        `db:"version" json:"version"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Exercise maps to the exercises catalog table.
type Exercise struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PlanExercise maps to the therapy_plan_exercises table: one exercise
// assignment within a plan. Archived rows stay in place as history and
// are excluded from the current view.
type PlanExercise struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PlanID          uuid.UUID `db:"plan_id" json:"plan_id"`
	ExerciseID      uuid.UUID `db:"exercise_id" json:"exercise_id"`
	DisplayOrder    int       `db:"display_order" json:"display_order"`
	Reps            int       `db:"reps" json:"reps"`
	Sets            int       `db:"sets" json:"sets"`
	DurationSeconds int       `db:"duration_seconds" json:"duration_seconds"`
	Frequency       *string   `db:"frequency" json:"frequency,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	Archived        bool      `db:"archived" json:"archived"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// PlanVersion maps to the therapy_plan_versions table, the append-only
// change history of plan structure.
type PlanVersion struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PlanID    uuid.UUID `db:"plan_id" json:"plan_id"`
	Version   int       `db:"version" json:"version"`
	Summary   string    `db:"summary" json:"summary"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

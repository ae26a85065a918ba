package completion

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)

	// MarkUndone persists the undo fields. The guard on the current
	// undone flag keeps two racing undos from both succeeding.
	MarkUndone(ctx context.Context, e *Event) error

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Event, int, error)
	ListByPlanExercise(ctx context.Context, planExerciseID uuid.UUID) ([]*Event, error)
}

package therapyplan

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreatePlan(ctx context.Context, p *Plan) error
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	ListPlansByPatient(ctx context.Context, patientID uuid.UUID) ([]*Plan, error)

	// BumpVersion increments the plan version by exactly 1, guarded by
	// the version the caller read. A stale read surfaces as a conflict.
	BumpVersion(ctx context.Context, planID uuid.UUID, fromVersion int) error

	AddPlanExercise(ctx context.Context, pe *PlanExercise) error
	GetPlanExercise(ctx context.Context, id uuid.UUID) (*PlanExercise, error)
	UpdatePlanExercise(ctx context.Context, pe *PlanExercise) error
	ListPlanExercises(ctx context.Context, planID uuid.UUID, includeArchived bool) ([]*PlanExercise, error)
	SetDisplayOrder(ctx context.Context, id uuid.UUID, order int) error
	NextDisplayOrder(ctx context.Context, planID uuid.UUID) (int, error)

	AppendVersion(ctx context.Context, v *PlanVersion) error
	ListVersions(ctx context.Context, planID uuid.UUID) ([]*PlanVersion, error)
}

type CatalogRepository interface {
	CreateExercise(ctx context.Context, e *Exercise) error
	GetExercise(ctx context.Context, id uuid.UUID) (*Exercise, error)
	ListExercises(ctx context.Context, limit, offset int) ([]*Exercise, int, error)
}

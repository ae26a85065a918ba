// Package therapyplan manages versioned exercise plans. Structural
// mutations (add, archive, reorder) run inside one transaction that
// applies the data change, bumps the plan version by exactly 1, and
// appends one ledger row. Parameter-only edits are plain updates and do
// not touch the version; that asymmetry is a policy of the version
// history, not an oversight.
package therapyplan

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperror"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/db"
)

type Service struct {
	plans   Repository
	catalog CatalogRepository
	inTx    db.Runner
}

func NewService(plans Repository, catalog CatalogRepository, inTx db.Runner) *Service {
	return &Service{plans: plans, catalog: catalog, inTx: inTx}
}

// PlanView is a plan with its current (non-archived) exercises.
type PlanView struct {
	Plan      *Plan           `json:"plan"`
	Exercises []*PlanExercise `json:"exercises"`
}

func (s *Service) CreatePlan(ctx context.Context, actor auth.Actor, patientID, practitionerID uuid.UUID) (*Plan, error) {
	if !actor.CanMutatePlan(practitionerID) {
		return nil, apperror.Forbidden("not allowed to create plans for this practitioner")
	}
	if patientID == uuid.Nil || practitionerID == uuid.Nil {
		return nil, apperror.Validation("patient_id and practitioner_id are required")
	}
	p := &Plan{
		PatientID:      patientID,
		PractitionerID: practitionerID,
		Status:         PlanActive,
		Version:        1,
	}
	if err := s.plans.CreatePlan(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPlan returns the plan with its current exercises in display order.
func (s *Service) GetPlan(ctx context.Context, actor auth.Actor, planID uuid.UUID) (*PlanView, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !actor.CanReadPlan(plan.PatientID, plan.PractitionerID) {
		return nil, apperror.Forbidden("not allowed to view this plan")
	}
	exercises, err := s.plans.ListPlanExercises(ctx, planID, false)
	if err != nil {
		return nil, err
	}
	return &PlanView{Plan: plan, Exercises: exercises}, nil
}

// ListVersions returns the plan's change ledger in version order.
func (s *Service) ListVersions(ctx context.Context, actor auth.Actor, planID uuid.UUID) ([]*PlanVersion, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !actor.CanReadPlan(plan.PatientID, plan.PractitionerID) {
		return nil, apperror.Forbidden("not allowed to view this plan")
	}
	return s.plans.ListVersions(ctx, planID)
}

// AddExerciseRequest names the exercise either by catalog id or inline
// by name (which creates the catalog entry first). Numeric parameters
// default to zero when unspecified.
type AddExerciseRequest struct {
	ExerciseID      *uuid.UUID `json:"exercise_id,omitempty"`
	Name            string     `json:"name,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Reps            int        `json:"reps"`
	Sets            int        `json:"sets"`
	DurationSeconds int        `json:"duration_seconds"`
	Frequency       *string    `json:"frequency,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

// AddExercise appends an exercise to the plan at the next display order
// and bumps the version.
func (s *Service) AddExercise(ctx context.Context, actor auth.Actor, planID uuid.UUID, req AddExerciseRequest) (*PlanExercise, error) {
	plan, err := s.loadForMutation(ctx, actor, planID)
	if err != nil {
		return nil, err
	}

	if req.ExerciseID == nil && strings.TrimSpace(req.Name) == "" {
		return nil, apperror.Validation("exercise_id or name is required")
	}

	pe := &PlanExercise{
		PlanID:          planID,
		Reps:            req.Reps,
		Sets:            req.Sets,
		DurationSeconds: req.DurationSeconds,
		Frequency:       req.Frequency,
		Notes:           req.Notes,
	}

	// Inline catalog creation joins the transaction; the catalog row and
	// the plan mutation commit or roll back together.
	err = s.inTx(ctx, func(ctx context.Context) error {
		if req.ExerciseID != nil {
			ex, err := s.catalog.GetExercise(ctx, *req.ExerciseID)
			if err != nil {
				return err
			}
			pe.ExerciseID = ex.ID
		} else {
			ex := &Exercise{Name: strings.TrimSpace(req.Name), Description: req.Description}
			if err := s.catalog.CreateExercise(ctx, ex); err != nil {
				return err
			}
			pe.ExerciseID = ex.ID
		}

		order, err := s.plans.NextDisplayOrder(ctx, planID)
		if err != nil {
			return err
		}
		pe.DisplayOrder = order
		if err := s.plans.AddPlanExercise(ctx, pe); err != nil {
			return err
		}
		return s.recordVersion(ctx, plan, actor, "Exercise added to plan")
	})
	if err != nil {
		return nil, err
	}
	return pe, nil
}

// UpdateParams are the tunable exercise parameters. Nil fields are left
// unchanged.
type UpdateParams struct {
	Reps            *int    `json:"reps,omitempty"`
	Sets            *int    `json:"sets,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	Frequency       *string `json:"frequency,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// UpdateExercise edits parameters on a non-archived plan exercise. It
// does not bump the plan version.
func (s *Service) UpdateExercise(ctx context.Context, actor auth.Actor, planID, planExerciseID uuid.UUID, params UpdateParams) (*PlanExercise, error) {
	if _, err := s.loadForMutation(ctx, actor, planID); err != nil {
		return nil, err
	}
	pe, err := s.planExercise(ctx, planID, planExerciseID)
	if err != nil {
		return nil, err
	}
	if pe.Archived {
		return nil, apperror.Validation("cannot update an archived exercise")
	}

	if params.Reps != nil {
		pe.Reps = *params.Reps
	}
	if params.Sets != nil {
		pe.Sets = *params.Sets
	}
	if params.DurationSeconds != nil {
		pe.DurationSeconds = *params.DurationSeconds
	}
	if params.Frequency != nil {
		pe.Frequency = params.Frequency
	}
	if params.Notes != nil {
		pe.Notes = params.Notes
	}

	if err := s.plans.UpdatePlanExercise(ctx, pe); err != nil {
		return nil, err
	}
	return pe, nil
}

// ArchiveExercise soft-deletes a plan exercise and bumps the version.
// The row stays in place so completion history keeps its target.
func (s *Service) ArchiveExercise(ctx context.Context, actor auth.Actor, planID, planExerciseID uuid.UUID) error {
	plan, err := s.loadForMutation(ctx, actor, planID)
	if err != nil {
		return err
	}
	pe, err := s.planExercise(ctx, planID, planExerciseID)
	if err != nil {
		return err
	}
	if pe.Archived {
		return apperror.Validation("exercise is already archived")
	}
	ex, err := s.catalog.GetExercise(ctx, pe.ExerciseID)
	if err != nil {
		return err
	}

	pe.Archived = true
	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.plans.UpdatePlanExercise(ctx, pe); err != nil {
			return err
		}
		return s.recordVersion(ctx, plan, actor, fmt.Sprintf("Exercise %q archived from plan", ex.Name))
	})
}

// ReorderItem assigns a new display order to one plan exercise.
type ReorderItem struct {
	ID       uuid.UUID `json:"id"`
	NewOrder int       `json:"new_order"`
}

// Reorder applies a batch of order changes as one transaction. If any
// item references a missing or foreign exercise, no order changes.
func (s *Service) Reorder(ctx context.Context, actor auth.Actor, planID uuid.UUID, items []ReorderItem) error {
	plan, err := s.loadForMutation(ctx, actor, planID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return apperror.Validation("reorder batch is empty")
	}

	existing, err := s.plans.ListPlanExercises(ctx, planID, true)
	if err != nil {
		return err
	}
	inPlan := make(map[uuid.UUID]bool, len(existing))
	for _, pe := range existing {
		inPlan[pe.ID] = true
	}
	for _, item := range items {
		if !inPlan[item.ID] {
			return apperror.NotFound("exercise %s does not belong to this plan", item.ID)
		}
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		for _, item := range items {
			if err := s.plans.SetDisplayOrder(ctx, item.ID, item.NewOrder); err != nil {
				return err
			}
		}
		return s.recordVersion(ctx, plan, actor, "Reordered exercises")
	})
}

func (s *Service) ListPlansByPatient(ctx context.Context, actor auth.Actor, patientID uuid.UUID) ([]*Plan, error) {
	if !actor.IsStaff() && !actor.IsPatient(patientID) {
		return nil, apperror.Forbidden("not allowed to view these plans")
	}
	return s.plans.ListPlansByPatient(ctx, patientID)
}

func (s *Service) ListCatalog(ctx context.Context, limit, offset int) ([]*Exercise, int, error) {
	return s.catalog.ListExercises(ctx, limit, offset)
}

func (s *Service) loadForMutation(ctx context.Context, actor auth.Actor, planID uuid.UUID) (*Plan, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !actor.CanMutatePlan(plan.PractitionerID) {
		return nil, apperror.Forbidden("not allowed to modify this plan")
	}
	return plan, nil
}

// planExercise loads a plan exercise and verifies it belongs to planID.
func (s *Service) planExercise(ctx context.Context, planID, id uuid.UUID) (*PlanExercise, error) {
	pe, err := s.plans.GetPlanExercise(ctx, id)
	if err != nil {
		return nil, err
	}
	if pe.PlanID != planID {
		return nil, apperror.NotFound("exercise does not belong to this plan")
	}
	return pe, nil
}

// recordVersion bumps the plan version and appends the matching ledger
// row. Must run inside the same transaction as the data change.
func (s *Service) recordVersion(ctx context.Context, plan *Plan, actor auth.Actor, summary string) error {
	if err := s.plans.BumpVersion(ctx, plan.ID, plan.Version); err != nil {
		return err
	}
	plan.Version++
	return s.plans.AppendVersion(ctx, &PlanVersion{
		PlanID:   plan.ID,
		Version:  plan.Version,
		Summary:  summary,
		AuthorID: actor.ID,
	})
}

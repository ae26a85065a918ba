// Package completion records exercise completions and governs their
// asymmetric undo: the owning patient has a short grace window and no
// paper trail; staff may undo at any time but must give a reason, which
// lands in the audit log. An undone event is terminal.
package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinic/internal/domain/audit"
	"github.com/clinicops/clinic/internal/domain/therapyplan"
	"github.com/clinicops/clinic/internal/platform/apperror"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/blobstore"
	"github.com/clinicops/clinic/internal/platform/notification"
)

// PlanReader is the slice of the therapy plan repository this package
// needs to resolve and validate completion targets.
type PlanReader interface {
	GetPlan(ctx context.Context, id uuid.UUID) (*therapyplan.Plan, error)
	GetPlanExercise(ctx context.Context, id uuid.UUID) (*therapyplan.PlanExercise, error)
	ListPlanExercises(ctx context.Context, planID uuid.UUID, includeArchived bool) ([]*therapyplan.PlanExercise, error)
}

// Meta carries request metadata recorded on audit entries.
type Meta struct {
	IP        string
	UserAgent string
}

type Service struct {
	repo     Repository
	plans    PlanReader
	store    blobstore.Store
	notifier *notification.Notifier
	recorder *audit.Recorder
	window   time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(repo Repository, plans PlanReader, store blobstore.Store, notifier *notification.Notifier, recorder *audit.Recorder, window time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		plans:    plans,
		store:    store,
		notifier: notifier,
		recorder: recorder,
		window:   window,
		now:      time.Now,
		logger:   logger,
	}
}

// TargetRef names the exercise being completed, either directly by plan
// exercise id or by the {plan, catalog exercise} pair. Both forms resolve
// to one canonical plan exercise before any validation runs.
type TargetRef struct {
	PlanExerciseID *uuid.UUID `json:"plan_exercise_id,omitempty"`
	PlanID         *uuid.UUID `json:"plan_id,omitempty"`
	ExerciseID     *uuid.UUID `json:"exercise_id,omitempty"`
}

func (s *Service) resolveTarget(ctx context.Context, ref TargetRef) (*therapyplan.PlanExercise, error) {
	switch {
	case ref.PlanExerciseID != nil:
		return s.plans.GetPlanExercise(ctx, *ref.PlanExerciseID)
	case ref.PlanID != nil && ref.ExerciseID != nil:
		list, err := s.plans.ListPlanExercises(ctx, *ref.PlanID, false)
		if err != nil {
			return nil, err
		}
		for _, pe := range list {
			if pe.ExerciseID == *ref.ExerciseID {
				return pe, nil
			}
		}
		return nil, apperror.NotFound("exercise is not part of this plan")
	default:
		return nil, apperror.Validation("plan_exercise_id or plan_id with exercise_id is required")
	}
}

// CreateRequest records one performed exercise.
type CreateRequest struct {
	Target       TargetRef `json:"target"`
	Notes        *string   `json:"notes,omitempty"`
	PainLevel    *int      `json:"pain_level,omitempty"`
	Satisfaction *int      `json:"satisfaction,omitempty"`
	MediaID      *string   `json:"media_id,omitempty"`
}

// Create validates the target and the self-report scores, persists the
// event, and notifies the plan's clinician. The notification is
// fire-and-forget.
func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Event, error) {
	pe, err := s.resolveTarget(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	if pe.Archived {
		return nil, apperror.Validation("cannot record a completion for an archived exercise")
	}
	plan, err := s.plans.GetPlan(ctx, pe.PlanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanRecordCompletionFor(plan.PatientID) {
		return nil, apperror.Forbidden("not allowed to record completions for this patient")
	}

	if req.PainLevel != nil && (*req.PainLevel < MinPainLevel || *req.PainLevel > MaxPainLevel) {
		return nil, apperror.Validation("pain_level must be between %d and %d", MinPainLevel, MaxPainLevel)
	}
	if req.Satisfaction != nil && (*req.Satisfaction < MinSatisfaction || *req.Satisfaction > MaxSatisfaction) {
		return nil, apperror.Validation("satisfaction must be between %d and %d", MinSatisfaction, MaxSatisfaction)
	}
	if req.MediaID != nil {
		_, rc, err := s.store.Get(ctx, *req.MediaID)
		if err != nil {
			return nil, apperror.Validation("media_id does not reference an uploaded file")
		}
		rc.Close()
	}

	e := &Event{
		PlanExerciseID: pe.ID,
		PatientID:      plan.PatientID,
		CompletedAt:    s.now().UTC(),
		Notes:          req.Notes,
		PainLevel:      req.PainLevel,
		Satisfaction:   req.Satisfaction,
		MediaID:        req.MediaID,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.notifier.Notify(plan.PractitionerID, "Exercise completed",
		fmt.Sprintf("Patient %s completed an assigned exercise.", plan.PatientID))
	return e, nil
}

// Undo reverses a completion. The patient path is time-boxed against
// server wall-clock time; the staff path requires a reason and writes a
// best-effort audit entry. Either way, an already-undone event stays
// undone.
func (s *Service) Undo(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string, meta Meta) (*Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Undone {
		return nil, apperror.AlreadyTerminal("completion event is already undone")
	}

	staffPath := false
	switch {
	case actor.IsPatient(e.PatientID):
		if s.now().Sub(e.CompletedAt) > s.window {
			return nil, apperror.Forbidden("the undo window for this completion has passed")
		}
	case actor.IsStaff():
		staffPath = true
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, apperror.Validation("a reason is required to undo a completion")
		}
	default:
		return nil, apperror.Forbidden("not allowed to undo this completion")
	}

	now := s.now().UTC()
	actorID := actor.ID
	e.Undone = true
	e.UndoneAt = &now
	e.UndoneBy = &actorID
	if staffPath {
		e.UndoneReason = &reason
	}
	if err := s.repo.MarkUndone(ctx, e); err != nil {
		return nil, err
	}

	if staffPath {
		detail, _ := json.Marshal(map[string]string{
			"completion_event_id": e.ID.String(),
			"reason":              reason,
			"completed_at":        e.CompletedAt.Format(time.RFC3339),
		})
		s.recorder.Record(ctx, audit.Entry{
			ActorID:    actor.ID,
			EntityType: audit.EntityCompletionEvent,
			EntityID:   e.ID,
			Action:     audit.ActionUndo,
			Detail:     string(detail),
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		})
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !actor.IsPatient(e.PatientID) {
		return nil, apperror.Forbidden("not allowed to view this completion")
	}
	return e, nil
}

func (s *Service) ListByPatient(ctx context.Context, actor auth.Actor, patientID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	if !actor.IsStaff() && !actor.IsPatient(patientID) {
		return nil, 0, apperror.Forbidden("not allowed to view these completions")
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

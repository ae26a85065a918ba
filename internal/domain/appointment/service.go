// Package appointment schedules patient visits and guards the one hard
// rule of the calendar: a practitioner never holds two overlapping
// non-cancelled appointments. The service pre-checks overlap before
// writing, and the appointments table carries an exclusion constraint
// over (practitioner_id, interval) so the rule also holds when two
// requests race past the pre-check.
package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinic/internal/domain/audit"
	"github.com/clinicops/clinic/internal/platform/apperror"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/redisclient"
)

// Directory is the slice of the identity service this package needs.
type Directory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	PractitionerExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Hours is the clinic's daily booking window. Appointments must start at
// or after Open and end at or before Close, with partial final hours
// rounded up before the comparison.
type Hours struct {
	Open  int
	Close int
}

// Meta carries request metadata recorded on audit entries.
type Meta struct {
	IP        string
	UserAgent string
}

type Service struct {
	repo      Repository
	directory Directory
	locker    redisclient.Locker
	recorder  *audit.Recorder
	hours     Hours
	logger    zerolog.Logger
}

func NewService(repo Repository, directory Directory, locker redisclient.Locker, recorder *audit.Recorder, hours Hours, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		locker:    locker,
		recorder:  recorder,
		hours:     hours,
		logger:    logger,
	}
}

// Create books a new appointment after the full validation chain:
// business hours, patient and practitioner existence, and overlap
// against the practitioner's existing bookings.
func (s *Service) Create(ctx context.Context, actor auth.Actor, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return apperror.Validation("patient_id is required")
	}
	if a.PractitionerID == uuid.Nil {
		return apperror.Validation("practitioner_id is required")
	}
	a.Status = StatusScheduled
	a.CreatedBy = actor.ID

	return s.validateAndReserve(ctx, a, uuid.Nil, func(ctx context.Context) error {
		return s.repo.Create(ctx, a)
	})
}

// UpdateRequest is the set of reschedulable fields. Nil fields are left
// unchanged.
type UpdateRequest struct {
	StartTime       *time.Time `json:"start_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

// Update reschedules an appointment, re-running the full validation
// chain with the appointment excluded from its own conflict check.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, req UpdateRequest) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageAppointment(a.PractitionerID) {
		return nil, apperror.Forbidden("not allowed to modify this appointment")
	}
	if a.Status.Terminal() {
		return nil, apperror.AlreadyTerminal("appointment is %s", strings.ToLower(string(a.Status)))
	}

	if req.StartTime != nil {
		a.StartTime = *req.StartTime
	}
	if req.DurationMinutes != nil {
		a.DurationMinutes = *req.DurationMinutes
	}
	if req.Notes != nil {
		a.Notes = req.Notes
	}

	err = s.validateAndReserve(ctx, a, a.ID, func(ctx context.Context) error {
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Transition moves the appointment along the status machine. Cancelling
// goes through Cancel, which also records the audit entry.
func (s *Service) Transition(ctx context.Context, actor auth.Actor, id uuid.UUID, next Status) (*Appointment, error) {
	if !validStatuses[next] {
		return nil, apperror.Validation("unknown status %q", next)
	}
	if next == StatusCancelled {
		return nil, apperror.Validation("use the cancel operation to cancel an appointment")
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageAppointment(a.PractitionerID) {
		return nil, apperror.Forbidden("not allowed to modify this appointment")
	}
	if a.Status.Terminal() {
		return nil, apperror.AlreadyTerminal("appointment is %s", strings.ToLower(string(a.Status)))
	}
	if !a.Status.CanTransitionTo(next) {
		return nil, apperror.Conflict("cannot move appointment from %s to %s", a.Status, next)
	}

	a.Status = next
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel sets the appointment to CANCELLED, appends the reason to its
// notes, and records a best-effort audit entry. The audit write never
// blocks the cancellation.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string, meta Meta) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageAppointment(a.PractitionerID) {
		return nil, apperror.Forbidden("not allowed to cancel this appointment")
	}
	if a.Status.Terminal() {
		return nil, apperror.AlreadyTerminal("appointment is %s", strings.ToLower(string(a.Status)))
	}

	prior := a.Status
	a.Status = StatusCancelled
	if reason = strings.TrimSpace(reason); reason != "" {
		note := fmt.Sprintf("Cancelled: %s", reason)
		if a.Notes != nil && *a.Notes != "" {
			note = *a.Notes + "\n" + note
		}
		a.Notes = &note
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	detail, _ := json.Marshal(map[string]string{
		"from":   string(prior),
		"to":     string(StatusCancelled),
		"reason": reason,
	})
	s.recorder.Record(ctx, audit.Entry{
		ActorID:    actor.ID,
		EntityType: audit.EntityAppointment,
		EntityID:   a.ID,
		Action:     audit.ActionCancel,
		Detail:     string(detail),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPractitioner(ctx, practitionerID, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// ListByRange returns appointments starting in [from, to), the calendar
// view query.
func (s *Service) ListByRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Appointment, int, error) {
	if !to.After(from) {
		return nil, 0, apperror.Validation("to must be after from")
	}
	return s.repo.ListByRange(ctx, from, to, limit, offset)
}

// validateAndReserve runs the ordered validation chain and calls persist
// only when every step passes. When Redis is configured the conflict
// check and write run under a per-practitioner lock, narrowing the
// check-then-act window; the exclusion constraint remains the
// authoritative guard either way.
func (s *Service) validateAndReserve(ctx context.Context, a *Appointment, excludeID uuid.UUID, persist func(ctx context.Context) error) error {
	if err := s.checkWindow(a.StartTime, a.DurationMinutes); err != nil {
		return err
	}

	ok, err := s.directory.PatientExists(ctx, a.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("patient not found")
	}
	ok, err = s.directory.PractitionerExists(ctx, a.PractitionerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("practitioner not found")
	}

	reserve := func(ctx context.Context) error {
		existing, err := s.repo.ListActiveByPractitioner(ctx, a.PractitionerID, excludeID)
		if err != nil {
			return err
		}
		end := a.End()
		for _, other := range existing {
			if other.Overlaps(a.StartTime, end) {
				return apperror.Conflict("practitioner has a conflicting appointment")
			}
		}
		return persist(ctx)
	}

	err = s.locker.WithScheduleLock(ctx, a.PractitionerID, reserve)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		// Lock contention or a Redis outage. Proceed without the lock;
		// the exclusion constraint still rejects a racing overlap.
		s.logger.Warn().
			Str("practitioner_id", a.PractitionerID.String()).
			Msg("schedule lock unavailable, booking under constraint protection only")
		return reserve(ctx)
	}
	return err
}

// checkWindow enforces the clinic's daily booking window. The end of the
// window is rounded up to the next whole hour before comparing with the
// closing hour, so an appointment ending 18:15 fails an 18:00 close
// while one ending exactly 18:00 passes.
func (s *Service) checkWindow(start time.Time, durationMinutes int) error {
	if start.IsZero() {
		return apperror.Validation("start_time is required")
	}
	if durationMinutes <= 0 {
		return apperror.Validation("duration_minutes must be positive")
	}
	if start.Hour() < s.hours.Open {
		return apperror.Validation("appointment is outside business hours")
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	if end.Year() != start.Year() || end.YearDay() != start.YearDay() {
		return apperror.Validation("appointment is outside business hours")
	}
	endHour := end.Hour()
	if end.Minute() != 0 || end.Second() != 0 || end.Nanosecond() != 0 {
		endHour++
	}
	if endHour > s.hours.Close {
		return apperror.Validation("appointment is outside business hours")
	}
	return nil
}

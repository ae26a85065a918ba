package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

var validStatuses = map[Status]bool{
	StatusScheduled: true, StatusInProgress: true,
	StatusCompleted: true, StatusCancelled: true,
}

var transitions = map[Status]map[Status]bool{
	StatusScheduled:  {StatusInProgress: true, StatusCompleted: true, StatusCancelled: true},
	StatusInProgress: {StatusCompleted: true, StatusCancelled: true},
}

// CanTransitionTo reports whether the status machine allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	return transitions[s][next]
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment maps to the appointments table. The interval it occupies is
// the half-open window [start_time, start_time + duration_minutes).
type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	PractitionerID  uuid.UUID  `db:"practitioner_id" json:"practitioner_id"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Status          Status     `db:"status" json:"status"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	CreatedBy       uuid.UUID  `db:"created_by" json:"created_by"`
	VisitRequestID  *uuid.UUID `db:"visit_request_id" json:"visit_request_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// End returns the exclusive end of the appointment window.
func (a *Appointment) End() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the two appointment windows intersect. The
// windows are half-open, so one ending exactly when the other starts is
// not an overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && start.Before(a.End())
}

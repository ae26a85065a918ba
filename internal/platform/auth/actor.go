// Package auth authenticates requests and models the acting user as a
// capability-bearing Actor. Domain services ask the Actor whether it may
// perform an action instead of comparing role strings at every call site.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role is the coarse role carried in the access token.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleClinician Role = "clinician"
	RoleFrontDesk Role = "front_desk"
	RolePatient   Role = "patient"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsStaff reports whether the actor belongs to clinic staff (anyone who is
// not a patient).
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleClinician || a.Role == RoleFrontDesk
}

// IsPatient reports whether the actor is the patient with the given id.
func (a Actor) IsPatient(patientID uuid.UUID) bool {
	return a.Role == RolePatient && a.ID == patientID
}

// CanManageAppointment reports whether the actor may update or cancel the
// appointment owned by the given clinician. Administrators and front desk
// may act on any appointment; a clinician only on their own.
func (a Actor) CanManageAppointment(clinicianID uuid.UUID) bool {
	switch a.Role {
	case RoleAdmin, RoleFrontDesk:
		return true
	case RoleClinician:
		return a.ID == clinicianID
	default:
		return false
	}
}

// CanMutatePlan reports whether the actor may structurally edit the plan
// assigned to the given clinician.
func (a Actor) CanMutatePlan(clinicianID uuid.UUID) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleClinician:
		return a.ID == clinicianID
	default:
		return false
	}
}

// CanReadPlan reports whether the actor may read a plan belonging to the
// given patient and clinician.
func (a Actor) CanReadPlan(patientID, clinicianID uuid.UUID) bool {
	if a.IsStaff() {
		return a.Role != RoleClinician || a.ID == clinicianID
	}
	return a.IsPatient(patientID)
}

// CanRecordCompletionFor reports whether the actor may record an exercise
// completion for the given patient. Patients record only for themselves;
// staff may record on a patient's behalf.
func (a Actor) CanRecordCompletionFor(patientID uuid.UUID) bool {
	return a.IsStaff() || a.IsPatient(patientID)
}

type actorContextKey struct{}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, a)
}

// ActorFromContext retrieves the actor set by the auth middleware. The
// second return value is false for unauthenticated contexts.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorContextKey{}).(Actor)
	return a, ok
}

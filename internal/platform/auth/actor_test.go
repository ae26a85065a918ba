package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestCanManageAppointment(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	cases := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", Actor{ID: uuid.New(), Role: RoleAdmin}, true},
		{"front desk", Actor{ID: uuid.New(), Role: RoleFrontDesk}, true},
		{"owning clinician", Actor{ID: owner, Role: RoleClinician}, true},
		{"other clinician", Actor{ID: other, Role: RoleClinician}, false},
		{"patient", Actor{ID: uuid.New(), Role: RolePatient}, false},
	}
	for _, tc := range cases {
		if got := tc.actor.CanManageAppointment(owner); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCanMutatePlan(t *testing.T) {
	owner := uuid.New()

	if !(Actor{ID: uuid.New(), Role: RoleAdmin}).CanMutatePlan(owner) {
		t.Error("admin should mutate any plan")
	}
	if !(Actor{ID: owner, Role: RoleClinician}).CanMutatePlan(owner) {
		t.Error("owning clinician should mutate their plan")
	}
	if (Actor{ID: uuid.New(), Role: RoleClinician}).CanMutatePlan(owner) {
		t.Error("foreign clinician must not mutate the plan")
	}
	if (Actor{ID: uuid.New(), Role: RoleFrontDesk}).CanMutatePlan(owner) {
		t.Error("front desk must not mutate plans")
	}
	if (Actor{ID: owner, Role: RolePatient}).CanMutatePlan(owner) {
		t.Error("patients must not mutate plans")
	}
}

func TestCanReadPlan(t *testing.T) {
	patientID := uuid.New()
	clinicianID := uuid.New()

	if !(Actor{ID: patientID, Role: RolePatient}).CanReadPlan(patientID, clinicianID) {
		t.Error("patient should read their own plan")
	}
	if (Actor{ID: uuid.New(), Role: RolePatient}).CanReadPlan(patientID, clinicianID) {
		t.Error("other patients must not read the plan")
	}
	if !(Actor{ID: clinicianID, Role: RoleClinician}).CanReadPlan(patientID, clinicianID) {
		t.Error("assigned clinician should read the plan")
	}
	if (Actor{ID: uuid.New(), Role: RoleClinician}).CanReadPlan(patientID, clinicianID) {
		t.Error("foreign clinician must not read the plan")
	}
	if !(Actor{ID: uuid.New(), Role: RoleFrontDesk}).CanReadPlan(patientID, clinicianID) {
		t.Error("front desk should read plans")
	}
}

func TestCanRecordCompletionFor(t *testing.T) {
	patientID := uuid.New()

	if !(Actor{ID: patientID, Role: RolePatient}).CanRecordCompletionFor(patientID) {
		t.Error("patient should record their own completion")
	}
	if (Actor{ID: uuid.New(), Role: RolePatient}).CanRecordCompletionFor(patientID) {
		t.Error("other patients must not record for someone else")
	}
	if !(Actor{ID: uuid.New(), Role: RoleClinician}).CanRecordCompletionFor(patientID) {
		t.Error("staff should record on a patient's behalf")
	}
}

func TestActorContextRoundTrip(t *testing.T) {
	actor := Actor{ID: uuid.New(), Role: RoleClinician}
	ctx := WithActor(context.Background(), actor)

	got, ok := ActorFromContext(ctx)
	if !ok {
		t.Fatal("expected actor on context")
	}
	if got != actor {
		t.Errorf("expected %+v, got %+v", actor, got)
	}

	if _, ok := ActorFromContext(context.Background()); ok {
		t.Error("expected no actor on empty context")
	}
}

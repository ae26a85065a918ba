package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperror"
)

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperror.NotFound("patient not found")
	}
	return p, nil
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var all []*Patient
	for _, p := range m.patients {
		all = append(all, p)
	}
	return all, len(all), nil
}

func (m *mockPatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.patients[id]
	return ok, nil
}

type mockPractitionerRepo struct {
	practitioners map[uuid.UUID]*Practitioner
	assignments   map[uuid.UUID][]uuid.UUID
	patients      *mockPatientRepo
}

func newMockPractitionerRepo(patients *mockPatientRepo) *mockPractitionerRepo {
	return &mockPractitionerRepo{
		practitioners: make(map[uuid.UUID]*Practitioner),
		assignments:   make(map[uuid.UUID][]uuid.UUID),
		patients:      patients,
	}
}

func (m *mockPractitionerRepo) Create(_ context.Context, p *Practitioner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.practitioners[p.ID] = p
	return nil
}

func (m *mockPractitionerRepo) GetByID(_ context.Context, id uuid.UUID) (*Practitioner, error) {
	p, ok := m.practitioners[id]
	if !ok {
		return nil, apperror.NotFound("practitioner not found")
	}
	return p, nil
}

func (m *mockPractitionerRepo) List(_ context.Context, limit, offset int) ([]*Practitioner, int, error) {
	var all []*Practitioner
	for _, p := range m.practitioners {
		all = append(all, p)
	}
	return all, len(all), nil
}

func (m *mockPractitionerRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.practitioners[id]
	return ok, nil
}

func (m *mockPractitionerRepo) AssignPatient(_ context.Context, practitionerID, patientID uuid.UUID) error {
	for _, existing := range m.assignments[practitionerID] {
		if existing == patientID {
			return nil
		}
	}
	m.assignments[practitionerID] = append(m.assignments[practitionerID], patientID)
	return nil
}

func (m *mockPractitionerRepo) OwnsPatient(_ context.Context, practitionerID, patientID uuid.UUID) (bool, error) {
	for _, existing := range m.assignments[practitionerID] {
		if existing == patientID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPractitionerRepo) ListAssignedPatients(ctx context.Context, practitionerID uuid.UUID) ([]*Patient, error) {
	var out []*Patient
	for _, id := range m.assignments[practitionerID] {
		p, err := m.patients.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func newTestService() (*Service, *mockPatientRepo, *mockPractitionerRepo) {
	patients := newMockPatientRepo()
	practitioners := newMockPractitionerRepo(patients)
	return NewService(patients, practitioners), patients, practitioners
}

func TestCreatePatient_RequiresName(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.CreatePatient(context.Background(), &Patient{FullName: "  "})
	if apperror.CodeOf(err) != apperror.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreatePatient_OK(t *testing.T) {
	svc, patients, _ := newTestService()

	p := &Patient{FullName: "Ada Moreno"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
	if len(patients.patients) != 1 {
		t.Errorf("expected 1 patient, got %d", len(patients.patients))
	}
}

func TestAssignPatient_UnknownPatient(t *testing.T) {
	svc, _, practitioners := newTestService()

	pract := &Practitioner{FullName: "Dr. Osei"}
	if err := svc.CreatePractitioner(context.Background(), pract); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.AssignPatient(context.Background(), pract.ID, uuid.New())
	if apperror.CodeOf(err) != apperror.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
	if len(practitioners.assignments[pract.ID]) != 0 {
		t.Error("expected no assignment to be recorded")
	}
}

func TestPractitionerOwnsPatient(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	patient := &Patient{FullName: "Ada Moreno"}
	pract := &Practitioner{FullName: "Dr. Osei"}
	other := &Practitioner{FullName: "Dr. Lind"}
	for _, err := range []error{
		svc.CreatePatient(ctx, patient),
		svc.CreatePractitioner(ctx, pract),
		svc.CreatePractitioner(ctx, other),
		svc.AssignPatient(ctx, pract.ID, patient.ID),
	} {
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	owns, err := svc.PractitionerOwnsPatient(ctx, pract.ID, patient.ID)
	if err != nil || !owns {
		t.Errorf("expected ownership, got owns=%v err=%v", owns, err)
	}
	owns, err = svc.PractitionerOwnsPatient(ctx, other.ID, patient.ID)
	if err != nil || owns {
		t.Errorf("expected no ownership, got owns=%v err=%v", owns, err)
	}
}

func TestNotFoundCodeMatchesSentinel(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.GetPatient(context.Background(), uuid.New())
	if !errors.Is(err, apperror.NotFound("")) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

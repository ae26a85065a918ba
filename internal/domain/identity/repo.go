package identity

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type PractitionerRepository interface {
	Create(ctx context.Context, p *Practitioner) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	List(ctx context.Context, limit, offset int) ([]*Practitioner, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Assignments
	AssignPatient(ctx context.Context, practitionerID, patientID uuid.UUID) error
	OwnsPatient(ctx context.Context, practitionerID, patientID uuid.UUID) (bool, error)
	ListAssignedPatients(ctx context.Context, practitionerID uuid.UUID) ([]*Patient, error)
}

// Package identity is the clinic directory of patients and practitioners.
// The scheduling and completion services consult it for existence checks
// and clinician ownership; it never reaches into their tables.
package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicops/clinic/internal/platform/apperror"
)

type Service struct {
	patients      PatientRepository
	practitioners PractitionerRepository
}

func NewService(patients PatientRepository, practitioners PractitionerRepository) *Service {
	return &Service{patients: patients, practitioners: practitioners}
}

// -- Directory checks consumed by other domains --

func (s *Service) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.patients.Exists(ctx, id)
}

func (s *Service) PractitionerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.practitioners.Exists(ctx, id)
}

func (s *Service) PractitionerOwnsPatient(ctx context.Context, practitionerID, patientID uuid.UUID) (bool, error) {
	return s.practitioners.OwnsPatient(ctx, practitionerID, patientID)
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.FullName) == "" {
		return apperror.Validation("full_name is required")
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// -- Practitioner --

func (s *Service) CreatePractitioner(ctx context.Context, p *Practitioner) error {
	if strings.TrimSpace(p.FullName) == "" {
		return apperror.Validation("full_name is required")
	}
	return s.practitioners.Create(ctx, p)
}

func (s *Service) GetPractitioner(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return s.practitioners.GetByID(ctx, id)
}

func (s *Service) ListPractitioners(ctx context.Context, limit, offset int) ([]*Practitioner, int, error) {
	return s.practitioners.List(ctx, limit, offset)
}

func (s *Service) AssignPatient(ctx context.Context, practitionerID, patientID uuid.UUID) error {
	if practitionerID == uuid.Nil || patientID == uuid.Nil {
		return apperror.Validation("practitioner_id and patient_id are required")
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("patient not found")
	}
	return s.practitioners.AssignPatient(ctx, practitionerID, patientID)
}

func (s *Service) ListAssignedPatients(ctx context.Context, practitionerID uuid.UUID) ([]*Patient, error) {
	return s.practitioners.ListAssignedPatients(ctx, practitionerID)
}

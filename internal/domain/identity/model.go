package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FullName    string     `db:"full_name" json:"full_name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Practitioner maps to the practitioners table.
type Practitioner struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Assignment maps to the patient_assignments table. A row means the
// practitioner is responsible for the patient's care.
type Assignment struct {
	PractitionerID uuid.UUID `db:"practitioner_id" json:"practitioner_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
}

package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic/internal/platform/apperror"
	"github.com/clinicops/clinic/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, full_name, email, date_of_birth, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patients (id, full_name, email, date_of_birth)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.FullName, p.Email, p.DateOfBirth,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, apperror.Internal(err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+patientCols+` FROM patients
		ORDER BY full_name, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return patients, total, nil
}

func (r *patientRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, apperror.Internal(err)
	}
	return exists, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("patient not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &p, nil
}

// -- Practitioner Repository --

type practitionerRepoPG struct {
	pool *pgxpool.Pool
}

func NewPractitionerRepo(pool *pgxpool.Pool) PractitionerRepository {
	return &practitionerRepoPG{pool: pool}
}

const practitionerCols = `id, full_name, specialty, created_at, updated_at`

func (r *practitionerRepoPG) Create(ctx context.Context, p *Practitioner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO practitioners (id, full_name, specialty)
		VALUES ($1, $2, $3)`,
		p.ID, p.FullName, p.Specialty,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *practitionerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return scanPractitioner(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+practitionerCols+` FROM practitioners WHERE id = $1`, id))
}

func (r *practitionerRepoPG) List(ctx context.Context, limit, offset int) ([]*Practitioner, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM practitioners`).Scan(&total); err != nil {
		return nil, 0, apperror.Internal(err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+practitionerCols+` FROM practitioners
		ORDER BY full_name, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	defer rows.Close()

	var practitioners []*Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, 0, err
		}
		practitioners = append(practitioners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return practitioners, total, nil
}

func (r *practitionerRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM practitioners WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, apperror.Internal(err)
	}
	return exists, nil
}

func (r *practitionerRepoPG) AssignPatient(ctx context.Context, practitionerID, patientID uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patient_assignments (practitioner_id, patient_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		practitionerID, patientID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NotFound("patient or practitioner not found")
		}
		return apperror.Internal(err)
	}
	return nil
}

func (r *practitionerRepoPG) OwnsPatient(ctx context.Context, practitionerID, patientID uuid.UUID) (bool, error) {
	var owns bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patient_assignments
			WHERE practitioner_id = $1 AND patient_id = $2
		)`, practitionerID, patientID).Scan(&owns)
	if err != nil {
		return false, apperror.Internal(err)
	}
	return owns, nil
}

func (r *practitionerRepoPG) ListAssignedPatients(ctx context.Context, practitionerID uuid.UUID) ([]*Patient, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT p.id, p.full_name, p.email, p.date_of_birth, p.created_at, p.updated_at
		FROM patients p
		JOIN patient_assignments pa ON pa.patient_id = p.id
		WHERE pa.practitioner_id = $1
		ORDER BY p.full_name, p.id`, practitionerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	return patients, nil
}

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(&p.ID, &p.FullName, &p.Specialty, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("practitioner not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &p, nil
}

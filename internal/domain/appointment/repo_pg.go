package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic/internal/platform/apperror"
	"github.com/clinicops/clinic/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, patient_id, practitioner_id, start_time, duration_minutes,
	status, notes, created_by, visit_request_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO appointments (
			id, patient_id, practitioner_id, start_time, duration_minutes,
			status, notes, created_by, visit_request_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PatientID, a.PractitionerID, a.StartTime, a.DurationMinutes,
		a.Status, a.Notes, a.CreatedBy, a.VisitRequestID,
	)
	return mapWriteErr(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE appointments SET
			patient_id=$2, practitioner_id=$3, start_time=$4, duration_minutes=$5,
			status=$6, notes=$7, visit_request_id=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientID, a.PractitionerID, a.StartTime, a.DurationMinutes,
		a.Status, a.Notes, a.VisitRequestID,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("appointment not found")
	}
	return nil
}

func (r *repoPG) ListActiveByPractitioner(ctx context.Context, practitionerID, excludeID uuid.UUID) ([]*Appointment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+cols+` FROM appointments
		WHERE practitioner_id = $1 AND status <> $2 AND id <> $3
		ORDER BY start_time`,
		practitionerID, StatusCancelled, excludeID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE practitioner_id = $1`, practitionerID).Scan(&total)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+cols+` FROM appointments
		WHERE practitioner_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3`, practitionerID, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	defer rows.Close()

	appts, err := collect(rows)
	return appts, total, err
}

// ListByRange returns appointments whose start falls in [from, to).
func (r *repoPG) ListByRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Appointment, int, error) {
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE start_time >= $1 AND start_time < $2`, from, to).Scan(&total)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+cols+` FROM appointments
		WHERE start_time >= $1 AND start_time < $2
		ORDER BY start_time
		LIMIT $3 OFFSET $4`, from, to, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	defer rows.Close()

	appts, err := collect(rows)
	return appts, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE patient_id = $1`, patientID).Scan(&total)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+cols+` FROM appointments
		WHERE patient_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	defer rows.Close()

	appts, err := collect(rows)
	return appts, total, err
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PractitionerID, &a.StartTime, &a.DurationMinutes,
		&a.Status, &a.Notes, &a.CreatedBy, &a.VisitRequestID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("appointment not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &a, nil
}

// mapWriteErr surfaces a violation of the practitioner no-overlap
// exclusion constraint as the same conflict the pre-check reports, so
// callers racing past the pre-check see identical behavior.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01", "23505": // exclusion_violation, unique_violation
			return apperror.Conflict("practitioner has a conflicting appointment")
		case "23503": // foreign_key_violation
			return apperror.NotFound("patient or practitioner not found")
		}
	}
	return apperror.Internal(err)
}

package completion

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

const cols = `id, plan_exercise_id, patient_id, completed_at, notes, pain_level,
	satisfaction, media_id, undone, undone_at, undone_reason, undone_by, created_at`

func (r *repoPG) Create(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO completion_events (
			id, plan_exercise_id, patient_id, completed_at, notes,
			pain_level, satisfaction, media_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.PlanExerciseID, e.PatientID, e.CompletedAt, e.Notes,
		e.PainLevel, e.Satisfaction, e.MediaID,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return scanEvent(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cols+` FROM completion_events WHERE id = $1`, id))
}

func (r *repoPG) MarkUndone(ctx context.Context, e *Event) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE completion_events SET
			undone = TRUE, undone_at = $2, undone_reason = $3, undone_by = $4
		WHERE id = $1 AND undone = FALSE`,
		e.ID, e.UndoneAt, e.UndoneReason, e.UndoneBy,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.AlreadyTerminal("completion event is already undone")
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM completion_events WHERE patient_id = $1`, patientID).Scan(&total)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+cols+` FROM completion_events
		WHERE patient_id = $1
		ORDER BY completed_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	defer rows.Close()

	events, err := collect(rows)
	return events, total, err
}

func (r *repoPG) ListByPlanExercise(ctx context.Context, planExerciseID uuid.UUID) ([]*Event, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+cols+` FROM completion_events
		WHERE plan_exercise_id = $1
		ORDER BY completed_at DESC`, planExerciseID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.PlanExerciseID, &e.PatientID, &e.CompletedAt, &e.Notes,
		&e.PainLevel, &e.Satisfaction, &e.MediaID, &e.Undone, &e.UndoneAt,
		&e.UndoneReason, &e.UndoneBy, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("completion event not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &e, nil
}

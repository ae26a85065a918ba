package therapyplan

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

const planCols = `id, patient_id, practitioner_id, status, version, created_at, updated_at`

func (r *repoPG) CreatePlan(ctx context.Context, p *Plan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO therapy_plans (id, patient_id, practitioner_id, status, version)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.PatientID, p.PractitionerID, p.Status, p.Version,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *repoPG) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	var p Plan
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+planCols+` FROM therapy_plans WHERE id = $1`, id).
		Scan(&p.ID, &p.PatientID, &p.PractitionerID, &p.Status, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("therapy plan not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &p, nil
}

func (r *repoPG) ListPlansByPatient(ctx context.Context, patientID uuid.UUID) ([]*Plan, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+planCols+` FROM therapy_plans WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.PatientID, &p.PractitionerID, &p.Status, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, apperror.Internal(err)
		}
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	return plans, nil
}

func (r *repoPG) BumpVersion(ctx context.Context, planID uuid.UUID, fromVersion int) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE therapy_plans SET version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2`,
		planID, fromVersion,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.Conflict("plan was modified concurrently")
	}
	return nil
}

const planExerciseCols = `id, plan_id, exercise_id, display_order, reps, sets,
	duration_seconds, frequency, notes, archived, created_at, updated_at`

func (r *repoPG) AddPlanExercise(ctx context.Context, pe *PlanExercise) error {
	if pe.ID == uuid.Nil {
		pe.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO therapy_plan_exercises (
			id, plan_id, exercise_id, display_order, reps, sets,
			duration_seconds, frequency, notes, archived
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		pe.ID, pe.PlanID, pe.ExerciseID, pe.DisplayOrder, pe.Reps, pe.Sets,
		pe.DurationSeconds, pe.Frequency, pe.Notes, pe.Archived,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *repoPG) GetPlanExercise(ctx context.Context, id uuid.UUID) (*PlanExercise, error) {
	return scanPlanExercise(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+planExerciseCols+` FROM therapy_plan_exercises WHERE id = $1`, id))
}

func (r *repoPG) UpdatePlanExercise(ctx context.Context, pe *PlanExercise) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE therapy_plan_exercises SET
			reps=$2, sets=$3, duration_seconds=$4, frequency=$5, notes=$6,
			archived=$7, updated_at=NOW()
		WHERE id = $1`,
		pe.ID, pe.Reps, pe.Sets, pe.DurationSeconds, pe.Frequency, pe.Notes, pe.Archived,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("plan exercise not found")
	}
	return nil
}

func (r *repoPG) ListPlanExercises(ctx context.Context, planID uuid.UUID, includeArchived bool) ([]*PlanExercise, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+planExerciseCols+` FROM therapy_plan_exercises
		WHERE plan_id = $1 AND (archived = FALSE OR $2)
		ORDER BY display_order, created_at`, planID, includeArchived)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()

	var out []*PlanExercise
	for rows.Next() {
		pe, err := scanPlanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	return out, nil
}

func (r *repoPG) SetDisplayOrder(ctx context.Context, id uuid.UUID, order int) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE therapy_plan_exercises SET display_order = $2, updated_at = NOW() WHERE id = $1`,
		id, order)
	if err != nil {
		return apperror.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("plan exercise not found")
	}
	return nil
}

func (r *repoPG) NextDisplayOrder(ctx context.Context, planID uuid.UUID) (int, error) {
	var next int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COALESCE(MAX(display_order), 0) + 1 FROM therapy_plan_exercises WHERE plan_id = $1`,
		planID).Scan(&next)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return next, nil
}

func (r *repoPG) AppendVersion(ctx context.Context, v *PlanVersion) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO therapy_plan_versions (id, plan_id, version, summary, author_id)
		VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.PlanID, v.Version, v.Summary, v.AuthorID,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *repoPG) ListVersions(ctx context.Context, planID uuid.UUID) ([]*PlanVersion, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, plan_id, version, summary, author_id, created_at
		FROM therapy_plan_versions
		WHERE plan_id = $1
		ORDER BY version`, planID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()

	var out []*PlanVersion
	for rows.Next() {
		var v PlanVersion
		if err := rows.Scan(&v.ID, &v.PlanID, &v.Version, &v.Summary, &v.AuthorID, &v.CreatedAt); err != nil {
			return nil, apperror.Internal(err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	return out, nil
}

func scanPlanExercise(row pgx.Row) (*PlanExercise, error) {
	var pe PlanExercise
	err := row.Scan(&pe.ID, &pe.PlanID, &pe.ExerciseID, &pe.DisplayOrder, &pe.Reps, &pe.Sets,
		&pe.DurationSeconds, &pe.Frequency, &pe.Notes, &pe.Archived, &pe.CreatedAt, &pe.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("plan exercise not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &pe, nil
}

// -- Catalog Repository --

type catalogRepoPG struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepoPG{pool: pool}
}

func (r *catalogRepoPG) CreateExercise(ctx context.Context, e *Exercise) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO exercises (id, name, description) VALUES ($1, $2, $3)`,
		e.ID, e.Name, e.Description)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *catalogRepoPG) GetExercise(ctx context.Context, id uuid.UUID) (*Exercise, error) {
	var e Exercise
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, description, created_at FROM exercises WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Description, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("exercise not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &e, nil
}

func (r *catalogRepoPG) ListExercises(ctx context.Context, limit, offset int) ([]*Exercise, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM exercises`).Scan(&total); err != nil {
		return nil, 0, apperror.Internal(err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, description, created_at FROM exercises
		ORDER BY name, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	defer rows.Close()

	var out []*Exercise
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.CreatedAt); err != nil {
			return nil, 0, apperror.Internal(err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return out, total, nil
}

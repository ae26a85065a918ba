package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Append(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, entity_type, entity_id, action, detail, ip_address, user_agent)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.ActorID, e.EntityType, e.EntityID, e.Action, e.Detail, e.IPAddress, e.UserAgent)
	return err
}

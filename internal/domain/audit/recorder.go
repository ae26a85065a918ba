package audit

import (
	"context"

	"github.com/rs/zerolog"
)

// Recorder appends audit entries on a best-effort basis. A failed write
// is logged and swallowed so that an audit outage can never block a
// clinical operation; callers must treat Record as infallible.
//
// Tradeoff: a swallowed failure means a compliance gap with no trace
// beyond the log line. A durable outbox (write the intent in the same
// transaction as the mutation, deliver asynchronously) would close that
// gap and is the documented alternative.
type Recorder struct {
	repo   Repository
	logger zerolog.Logger
}

func NewRecorder(repo Repository, logger zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record appends the entry. It never returns an error.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if err := r.repo.Append(ctx, &e); err != nil {
		r.logger.Error().
			Err(err).
			Str("entity_type", e.EntityType).
			Str("entity_id", e.EntityID.String()).
			Str("action", e.Action).
			Str("actor_id", e.ActorID.String()).
			Msg("audit write failed; continuing without audit entry")
	}
}

package audit

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	entries []*Entry
	fail    bool
}

func (m *mockRepo) Append(_ context.Context, e *Entry) error {
	if m.fail {
		return errors.New("audit store unavailable")
	}
	e.ID = uuid.New()
	m.entries = append(m.entries, e)
	return nil
}

func TestRecord_Appends(t *testing.T) {
	repo := &mockRepo{}
	rec := NewRecorder(repo, zerolog.New(os.Stderr))

	rec.Record(context.Background(), Entry{
		ActorID:    uuid.New(),
		EntityType: EntityAppointment,
		EntityID:   uuid.New(),
		Action:     ActionCancel,
		Detail:     `{"from":"SCHEDULED","to":"CANCELLED"}`,
	})

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].Action != ActionCancel {
		t.Errorf("unexpected action %s", repo.entries[0].Action)
	}
}

func TestRecord_SwallowsFailure(t *testing.T) {
	repo := &mockRepo{fail: true}
	rec := NewRecorder(repo, zerolog.New(os.Stderr))

	// Must not panic or propagate; this is the documented best-effort policy.
	rec.Record(context.Background(), Entry{
		ActorID:    uuid.New(),
		EntityType: EntityCompletionEvent,
		EntityID:   uuid.New(),
		Action:     ActionUndo,
	})

	if len(repo.entries) != 0 {
		t.Errorf("expected no entries, got %d", len(repo.entries))
	}
}

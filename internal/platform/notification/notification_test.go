package notification

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type recordingSender struct {
	mu    sync.Mutex
	calls int
	fail  int // fail this many leading attempts
	last  string
}

func (s *recordingSender) Send(_ context.Context, _ uuid.UUID, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = subject
	if s.calls <= s.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func TestNotify_Delivers(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, zerolog.New(os.Stderr))

	n.Notify(uuid.New(), "Exercise completed", "Your patient logged a completion")
	n.Flush()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.calls != 1 {
		t.Errorf("expected 1 send, got %d", sender.calls)
	}
	if sender.last != "Exercise completed" {
		t.Errorf("unexpected subject %q", sender.last)
	}
}

func TestNotify_RetriesThenSucceeds(t *testing.T) {
	sender := &recordingSender{fail: 1}
	n := NewNotifier(sender, zerolog.New(os.Stderr))
	n.retryDelay = 0

	n.Notify(uuid.New(), "subject", "body")
	n.Flush()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", sender.calls)
	}
}

func TestNotify_DropsAfterRetries(t *testing.T) {
	sender := &recordingSender{fail: 100}
	n := NewNotifier(sender, zerolog.New(os.Stderr))
	n.retryDelay = 0

	// Must not block or panic even though every attempt fails.
	n.Notify(uuid.New(), "subject", "body")
	n.Flush()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.calls != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, sender.calls)
	}
}

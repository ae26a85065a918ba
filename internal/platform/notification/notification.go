// Package notification delivers best-effort messages to clinic users.
// Delivery is asynchronous and fire-and-forget: a failed or slow send
// never affects the operation that triggered it.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sender delivers a single message to a user over some channel (email,
// SMS, push). Implementations live at the edge; the core only knows the
// recipient's user id.
type Sender interface {
	Send(ctx context.Context, recipientUserID uuid.UUID, subject, body string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, recipientUserID uuid.UUID, subject, body string) error

func (f SenderFunc) Send(ctx context.Context, recipientUserID uuid.UUID, subject, body string) error {
	return f(ctx, recipientUserID, subject, body)
}

// LogSender writes notifications to the structured log. It is the default
// sender in development and the fallback when no real channel is wired.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) Send(_ context.Context, recipientUserID uuid.UUID, subject, body string) error {
	s.Logger.Info().
		Str("recipient", recipientUserID.String()).
		Str("subject", subject).
		Str("body", body).
		Msg("notification")
	return nil
}

const (
	sendTimeout = 10 * time.Second
	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

// Notifier dispatches messages asynchronously with a small retry budget.
type Notifier struct {
	sender     Sender
	logger     zerolog.Logger
	retryDelay time.Duration
	wg         sync.WaitGroup
}

func NewNotifier(sender Sender, logger zerolog.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger, retryDelay: retryDelay}
}

// Notify queues a message for delivery and returns immediately. Failures
// after all attempts are logged and dropped.
func (n *Notifier) Notify(recipientUserID uuid.UUID, subject, body string) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			err := n.sender.Send(ctx, recipientUserID, subject, body)
			cancel()
			if err == nil {
				return
			}
			if attempt < maxAttempts {
				time.Sleep(n.retryDelay)
				continue
			}
			n.logger.Warn().
				Err(err).
				Str("recipient", recipientUserID.String()).
				Str("subject", subject).
				Msg("notification dropped after retries")
		}
	}()
}

// Flush waits for in-flight deliveries. Intended for shutdown and tests.
func (n *Notifier) Flush() {
	n.wg.Wait()
}

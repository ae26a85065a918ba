package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestWithScheduleLock_RedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	locker := NewScheduleLocker(client, time.Second)

	ran := false
	err := locker.WithScheduleLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if !errors.Is(err, ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired, got %v", err)
	}
	if ran {
		t.Error("critical section must not run when the lock is unavailable")
	}
}

func TestNoopLocker_RunsCriticalSection(t *testing.T) {
	ran := false
	err := NoopLocker{}.WithScheduleLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Error("critical section did not run")
	}
}

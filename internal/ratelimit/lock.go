package ratelimit

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrLockTimeout = errors.New("lock_timeout")

	errLockUnconfigured = errors.New("lock client not configured")
	errLockArgs         = errors.New("lock key and positive ttl are required")
)

// compareAndDelete removes the key only while it still holds the caller's token,
// so a holder whose lease expired cannot release someone else's lock.
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	minPoll = 10 * time.Millisecond
	maxPoll = 200 * time.Millisecond
)

// Locker hands out short Redis leases keyed by order id.
type Locker struct {
	client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client}
}

// TryLock makes one attempt and reports whether the lease was taken.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	if l == nil {
		return "", false, errLockUnconfigured
	}
	if key == "" || ttl <= 0 {
		return "", false, errLockArgs
	}
	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Acquire retries TryLock with jittered backoff for up to wait.
func (l *Locker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (string, error) {
	deadline := time.Now().Add(wait)
	poll := minPoll
	for {
		token, ok, err := l.TryLock(ctx, key, ttl)
		switch {
		case err != nil:
			return "", err
		case ok:
			return token, nil
		case time.Now().After(deadline):
			return "", ErrLockTimeout
		}

		timer := time.NewTimer(poll/2 + rand.N(poll/2+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
		poll = min(poll*2, maxPoll)
	}
}

// Release drops the lease if token still owns it. Missing arguments are a no-op.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || key == "" || token == "" {
		return nil
	}
	return compareAndDelete.Run(ctx, l.client, []string{key}, token).Err()
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"finsync/internal/domain/itemsync"
)

var ErrLockLost = errors.New("lock is no longer held")

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Locker hands out short-lived exclusive locks backed by SET NX PX.
type Locker struct {
	client redis.UniversalClient
}

func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: client}
}

// TryLock attempts to take key for ttl without waiting. ok is false when the
// key is already held.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (itemsync.Lock, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	return &Lease{client: l.client, key: key, token: token}, true, nil
}

// Lease is a lock held by this process, identified by a random token.
type Lease struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Refresh extends the lease to ttl from now. It fails with ErrLockLost once
// the key has expired or been taken by someone else.
func (l *Lease) Refresh(ctx context.Context, ttl time.Duration) error {
	n, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to refresh lock %s: %w", l.key, err)
	}
	if n == 0 {
		return fmt.Errorf("refresh %s: %w", l.key, ErrLockLost)
	}
	return nil
}

func (l *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}

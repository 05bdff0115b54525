package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client, err := NewClient(addr, "", 0)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLocker_TryLock(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := "finsync:test:lock:" + t.Name()
	client.Del(ctx, key)

	locker := NewLocker(client.Client)

	lock, ok, err := locker.TryLock(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock() = %v, %v; want acquired", ok, err)
	}

	if _, ok, err := locker.TryLock(ctx, key, time.Minute); err != nil || ok {
		t.Fatalf("second TryLock() = %v, %v; want held", ok, err)
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}

	lock, ok, err = locker.TryLock(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("TryLock() after release = %v, %v; want acquired", ok, err)
	}
	lock.Release(ctx)
}

func TestLocker_ReleaseAfterTakeover(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := "finsync:test:lock:" + t.Name()
	client.Del(ctx, key)

	locker := NewLocker(client.Client)

	stale, ok, err := locker.TryLock(ctx, key, 50*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("TryLock() = %v, %v", ok, err)
	}
	time.Sleep(100 * time.Millisecond)

	owner, ok, err := locker.TryLock(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("TryLock() after expiry = %v, %v", ok, err)
	}
	defer owner.Release(ctx)

	// the stale holder must not release or extend the new owner's lock
	if err := stale.Release(ctx); err != nil {
		t.Fatalf("stale Release() failed: %v", err)
	}
	if n, _ := client.Exists(ctx, key).Result(); n != 1 {
		t.Error("stale release removed the new owner's lock")
	}
	if err := stale.Refresh(ctx, time.Minute); !errors.Is(err, ErrLockLost) {
		t.Errorf("stale Refresh() error = %v, want ErrLockLost", err)
	}
}

func TestLease_RefreshExtendsExpiry(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := "finsync:test:lock:" + t.Name()
	client.Del(ctx, key)

	lock, ok, err := NewLocker(client.Client).TryLock(ctx, key, 100*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("TryLock() = %v, %v", ok, err)
	}
	defer lock.Release(ctx)

	if err := lock.Refresh(ctx, time.Minute); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	time.Sleep(150 * time.Millisecond)

	if n, _ := client.Exists(ctx, key).Result(); n != 1 {
		t.Error("lock expired despite refresh")
	}
}

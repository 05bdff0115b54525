package itemsync

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
)

const lockKeyPrefix = "finsync:itemsync:"

// Guard serializes syncs of the same item. Concurrent calls in this process
// share one run; when a Locker is configured, a run held by another process
// is rejected with ErrSyncInProgress.
//
// The shared run is detached from the callers' contexts and bounded by
// runTimeout instead. A caller whose context ends stops waiting, but the run
// carries on for everyone else.
type Guard struct {
	group      singleflight.Group
	locker     Locker
	ttl        time.Duration
	runTimeout time.Duration
}

// NewGuard creates a guard. locker may be nil. The lock is taken for ttl and
// refreshed while the run lasts.
func NewGuard(locker Locker, ttl, runTimeout time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}
	return &Guard{locker: locker, ttl: ttl, runTimeout: runTimeout}
}

// Do runs fn for itemID unless a run for that item is already in flight, in
// which case it waits for that run's result.
func (g *Guard) Do(ctx context.Context, itemID string, fn func(context.Context) (*Result, error)) (*Result, error) {
	started := false
	ch := g.group.DoChan(itemID, func() (interface{}, error) {
		started = true
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.runTimeout)
		defer cancel()
		return g.locked(runCtx, itemID, fn)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		// started is written before the result is sent
		if !started {
			log.Printf("Item %s: joined in-flight sync", itemID)
		}
		res, _ := r.Val.(*Result)
		return res, r.Err
	}
}

func (g *Guard) locked(ctx context.Context, itemID string, fn func(context.Context) (*Result, error)) (*Result, error) {
	if g.locker == nil {
		return fn(ctx)
	}

	lock, ok, err := g.locker.TryLock(ctx, lockKeyPrefix+itemID, g.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}

	stop := g.keepAlive(ctx, itemID, lock)
	defer func() {
		stop()
		// the run context may already be done
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Printf("Item %s: failed to release sync lock: %v", itemID, err)
		}
	}()

	return fn(ctx)
}

// keepAlive refreshes lock every third of its ttl until stop is called.
func (g *Guard) keepAlive(ctx context.Context, itemID string, lock Lock) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(g.ttl / 3)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := lock.Refresh(ctx, g.ttl); err != nil {
					log.Printf("Item %s: failed to refresh sync lock: %v", itemID, err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

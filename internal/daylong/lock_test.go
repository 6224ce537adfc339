// FilePath: internal/daylong/lock_test.go
package daylong

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client), mr
}

func TestRedisLockerExcludesPerDay(t *testing.T) {
	locker, _ := newTestRedisLocker(t)
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, 1, day())
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := locker.Acquire(ctx, 1, day()); ok {
		t.Error("second acquire for the same (resource, day) succeeded")
	}
	if rel, ok, _ := locker.Acquire(ctx, 2, day()); !ok {
		t.Error("acquire for a different resource blocked")
	} else {
		rel()
	}
	release()
	if rel, ok, _ := locker.Acquire(ctx, 1, day()); !ok {
		t.Error("re-acquire after release failed")
	} else {
		rel()
	}
}

func TestRedisLockerStaleReleaseKeepsSuccessorLock(t *testing.T) {
	locker, mr := newTestRedisLocker(t)
	ctx := context.Background()

	staleRelease, ok, err := locker.Acquire(ctx, 1, day())
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}

	// The first holder outlives its TTL; a second builder takes the slot.
	mr.FastForward(lockTTL + time.Second)
	release, ok, err := locker.Acquire(ctx, 1, day())
	if err != nil || !ok {
		t.Fatalf("acquire after expiry failed: ok=%v err=%v", ok, err)
	}

	// The stale holder's release must not delete the successor's lock.
	staleRelease()
	if _, ok, _ := locker.Acquire(ctx, 1, day()); ok {
		t.Error("stale release freed a lock held by another builder")
	}
	release()
}

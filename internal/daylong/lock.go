// FilePath: internal/daylong/lock.go
package daylong

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// Locker serializes day-long assembly per (resource, day). Acquire returns
// false when another builder already holds the slot; the returned release
// must be called when ok is true.
type Locker interface {
	Acquire(ctx context.Context, resourceID int, day time.Time) (release func(), ok bool, err error)
}

const lockTTL = 30 * time.Minute

// Deletes the lock key only while it still holds the caller's token, so a
// builder whose lock expired cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func lockKey(resourceID int, day time.Time) string {
	return fmt.Sprintf("archivehub:daylong:%d:%s", resourceID, day.Format("20060102"))
}

// RedisLocker coordinates builders across processes through a shared redis
// key per (resource, day). The TTL bounds how long a crashed builder can
// block the slot.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker wraps an existing redis client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, resourceID int, day time.Time) (func(), bool, error) {
	key := lockKey(resourceID, day)
	token := nuts.NID("daylong", 12)
	ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			nuts.L.Warnf("[DayLong] could not release build lock %s: %v", key, err)
		}
	}
	return release, true, nil
}

// LocalLocker serializes builders inside a single process. Used when no
// redis endpoint is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(_ context.Context, resourceID int, day time.Time) (func(), bool, error) {
	key := lockKey(resourceID, day)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return nil, false, nil
	}
	l.held[key] = struct{}{}
	release := func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}
	return release, true, nil
}

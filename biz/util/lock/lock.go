package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"passport/biz/config"
	rediscli "passport/biz/db/redis"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

var (
	ErrLockTimeout = errors.New("wait for lock timeout")
	ErrNotAcquired = errors.New("lock not acquired")

	errLockHeld = errors.New("lock is held by another owner")
)

const keyPrefix = "dist_lock:"

// releaseScript deletes the key only while it still belongs to the caller,
// so an expired-and-retaken lock is never released by its former owner.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker runs fn while holding the mutual exclusion identified by key.
// The lock is released on every exit path of fn, panics included.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Key joins a lock family and a resource id.
func Key(family, id string) string {
	return family + ":" + id
}

type RedisLocker struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
}

func NewRedisLocker(rdb redis.Cmdable, conf config.LockConf) *RedisLocker {
	l := &RedisLocker{
		rdb:      rdb,
		ttl:      time.Duration(conf.TTLMillis) * time.Millisecond,
		wait:     time.Duration(conf.WaitMillis) * time.Millisecond,
		interval: time.Duration(conf.RetryIntervalMillis) * time.Millisecond,
	}
	if l.ttl <= 0 {
		l.ttl = 10 * time.Second
	}
	if l.wait <= 0 {
		l.wait = 3 * time.Second
	}
	if l.interval <= 0 {
		l.interval = 50 * time.Millisecond
	}
	return l
}

func NewDefault() *RedisLocker {
	return NewRedisLocker(rediscli.GetRedisClient(), config.GetLockConf())
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	redisKey := keyPrefix + key
	owner := uuid.NewString()

	if err := l.acquire(ctx, redisKey, owner); err != nil {
		return err
	}
	defer l.release(ctx, redisKey, owner)

	return fn(ctx)
}

func (l *RedisLocker) acquire(ctx context.Context, key, owner string) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	err := retry.Do(waitCtx, retry.NewConstant(l.interval), func(ctx context.Context) error {
		ok, err := l.rdb.SetNX(ctx, key, owner, l.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errLockHeld)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	// a SETNX applied on the server can still come back as an error, the key
	// must not outlive this call under an owner nobody releases
	l.release(ctx, key, owner)

	switch {
	case errors.Is(err, errLockHeld), errors.Is(err, context.DeadlineExceeded):
		hlog.CtxNoticef(ctx, "wait for lock %s timeout after %v", key, l.wait)
		return fmt.Errorf("%w: %s", ErrLockTimeout, key)
	default:
		hlog.CtxErrorf(ctx, "acquire lock %s err: %v", key, err)
		return fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
	}
}

func (l *RedisLocker) release(ctx context.Context, key, owner string) {
	// the request may already be cancelled, the key still has to go
	ctx = context.WithoutCancel(ctx)
	if err := l.rdb.Eval(ctx, releaseScript, []string{key}, owner).Err(); err != nil {
		hlog.CtxErrorf(ctx, "release lock %s err: %v", key, err)
	}
}

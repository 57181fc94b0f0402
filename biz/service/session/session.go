package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	rediscli "passport/biz/db/redis"

	"github.com/redis/go-redis/v9"
)

var ErrStoreUnavailable = errors.New("session store unavailable")

const keyPrefix = "login_token:"

// Store maps (userID, signature) to the active token of that client.
// Every operation on one key is a single redis command, so redis orders
// concurrent writers and a delete after a save is final.
type Store interface {
	Save(ctx context.Context, userID, signature, token string) error
	Del(ctx context.Context, userID, signature string) error
	Lookup(ctx context.Context, userID, signature string) (string, bool, error)
	DelAll(ctx context.Context, userID string) (int, error)
}

type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStore keeps each entry for ttl. Entries expire together with the
// token they hold.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func NewDefault(ttl time.Duration) *RedisStore {
	return NewRedisStore(rediscli.GetRedisClient(), ttl)
}

// Save overwrites any token already stored for the same key.
func (s *RedisStore) Save(ctx context.Context, userID, signature, token string) error {
	if err := s.rdb.Set(ctx, Key(userID, signature), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: save: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Del removes the entry. A missing entry is not an error.
func (s *RedisStore) Del(ctx context.Context, userID, signature string) error {
	if err := s.rdb.Del(ctx, Key(userID, signature)).Err(); err != nil {
		return fmt.Errorf("%w: del: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Lookup(ctx context.Context, userID, signature string) (string, bool, error) {
	token, err := s.rdb.Get(ctx, Key(userID, signature)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: lookup: %v", ErrStoreUnavailable, err)
	}
	return token, true, nil
}

// DelAll removes every entry of userID and returns how many were removed.
func (s *RedisStore) DelAll(ctx context.Context, userID string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	pattern := keyPrefix + userID + ":*"
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
		}
		if len(keys) > 0 {
			n, err := s.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("%w: del: %v", ErrStoreUnavailable, err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// Key is the redis key of one session entry. User ids never contain ':',
// so the user part is unambiguous whatever the signature holds.
func Key(userID, signature string) string {
	return keyPrefix + userID + ":" + signature
}

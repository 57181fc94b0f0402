package interceptor

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// luaScript increments the window counter and (re)arms its TTL.
// KEYS[1]: counter key
// ARGV[1]: window in seconds
// ARGV[2]: max count inside one window
const luaScript = `
local key = KEYS[1]
local window = ARGV[1]
local limit = tonumber(ARGV[2])

local current = redis.call("INCR", key)

if current == 1 then
    redis.call("EXPIRE", key, window)
else
    if redis.call("TTL", key) == -1 then
        redis.call("EXPIRE", key, window)
    end
end

if current > limit then
    return 0
end
return 1
`

const KeyPrefix = "rate_limit:"

// Interceptor is a fixed-window counter kept in redis.
type Interceptor struct {
	rdb    redis.Cmdable
	window time.Duration
	limit  int64
}

func NewInterceptor(rdb redis.Cmdable, windowSeconds int, limit int64) *Interceptor {
	return &Interceptor{
		rdb:    rdb,
		window: time.Duration(windowSeconds) * time.Second,
		limit:  limit,
	}
}

// Allow counts one hit for key and reports whether it is still inside the limit.
func (i *Interceptor) Allow(ctx context.Context, key string) (bool, error) {
	result, err := i.rdb.
		Eval(ctx, luaScript, []string{KeyPrefix + key}, int(i.window.Seconds()), i.limit).Int64()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

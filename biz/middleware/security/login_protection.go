package security

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"passport/biz/config"
	"passport/biz/model/dto"
	"passport/biz/model/errs"
	"passport/biz/util/interceptor"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
)

const (
	keyLoginBlockHour   = "login_block_h:"
	keyLoginBlockMinute = "login_block_m:"
	keyLoginFailLvl     = "login_fail_level:"
	keyLoginFail        = "login_fail:"
)

// NewLoginProtection blocks a client IP after repeated rejected logins.
// The first burst of failures blocks for BlockMinDuration minutes and marks
// the IP; another burst while marked blocks for BlockHourDuration hours.
// Only rejected credentials count, so store or lock failures never block.
func NewLoginProtection(rdb redis.Cmdable, conf config.LoginProtectionConf) app.HandlerFunc {
	window := conf.WindowSeconds
	if window <= 0 {
		window = 300
	}

	limit := conf.Limit
	if limit <= 0 {
		limit = 3
	}

	durationBlockMin := time.Duration(conf.BlockMinDuration) * time.Minute
	if durationBlockMin <= 0 {
		durationBlockMin = 5 * time.Minute
	}

	durationBlockHour := time.Duration(conf.BlockHourDuration) * time.Hour
	if durationBlockHour <= 0 {
		durationBlockHour = 24 * time.Hour
	}

	durationFailLvl := time.Duration(conf.LevelDuration) * time.Second
	if durationFailLvl <= 0 {
		durationFailLvl = 30 * time.Minute
	}

	// the interceptor denies once current > limit, so the Nth failure trips it
	failInterceptor := interceptor.NewInterceptor(rdb, window, int64(limit-1))

	return func(ctx context.Context, c *app.RequestContext) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}

		if blocked(ctx, rdb, keyLoginBlockHour+ip) {
			abortBlocked(c, fmt.Sprintf("too many login failures, please try again after %v hours", durationBlockHour.Hours()))
			return
		}
		if blocked(ctx, rdb, keyLoginBlockMinute+ip) {
			abortBlocked(c, fmt.Sprintf("too many login failures, please try again after %v minutes", durationBlockMin.Minutes()))
			return
		}

		c.Next(ctx)

		var resp dto.CommonResp
		if err := json.Unmarshal(c.Response.Body(), &resp); err != nil {
			hlog.CtxErrorf(ctx, "login protection parse resp err: %v", err)
			return
		}
		if resp.Success || int32(resp.Code) != errs.IncorrectUsernameOrPassword.Code() {
			return
		}

		allowed, err := failInterceptor.Allow(ctx, keyLoginFail+ip)
		if err != nil {
			hlog.CtxErrorf(ctx, "login fail counter err: %v", err)
			return
		}
		if allowed {
			return
		}

		lvl, _ := rdb.Exists(ctx, keyLoginFailLvl+ip).Result()
		if lvl > 0 {
			rdb.Set(ctx, interceptor.KeyPrefix+keyLoginBlockHour+ip, "1", durationBlockHour)
			hlog.CtxInfof(ctx, "login protection: ip %s blocked for %v (level 2)", ip, durationBlockHour)
			return
		}

		pipe := rdb.Pipeline()
		pipe.Set(ctx, interceptor.KeyPrefix+keyLoginBlockMinute+ip, "1", durationBlockMin)
		pipe.Set(ctx, keyLoginFailLvl+ip, "1", durationFailLvl)
		if _, err := pipe.Exec(ctx); err != nil {
			hlog.CtxErrorf(ctx, "set login block keys err: %v", err)
		}
		hlog.CtxInfof(ctx, "login protection: ip %s blocked for %v (level 1)", ip, durationBlockMin)
	}
}

// blocked fails open on redis errors.
func blocked(ctx context.Context, rdb redis.Cmdable, key string) bool {
	n, err := rdb.Exists(ctx, interceptor.KeyPrefix+key).Result()
	if err != nil {
		hlog.CtxErrorf(ctx, "login protection check err: %v", err)
		return false
	}
	return n > 0
}

func abortBlocked(c *app.RequestContext, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, dto.CommonResp{
		Success: false,
		Code:    int(errs.RequestBlocked.Code()),
		Message: msg,
	})
}

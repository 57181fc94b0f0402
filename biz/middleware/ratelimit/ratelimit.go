package ratelimit

import (
	"context"

	"passport/biz/config"
	"passport/biz/middleware/policy"
	"passport/biz/model/errs"
	"passport/biz/util/interceptor"
	"passport/biz/util/resp"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/redis/go-redis/v9"
)

type rule struct {
	interceptor *interceptor.Interceptor
	byUser      bool
}

// New limits requests per path. Rules keyed by_user count per authenticated
// caller, so this must run after the policy middleware; every other rule
// counts per client IP. Paths without a rule share a default of 2 per second.
func New(rdb redis.Cmdable, confList []config.RateLimitConf) app.HandlerFunc {
	rules := make(map[string]*rule)
	for _, conf := range confList {
		if conf.Path != "" && conf.WindowSeconds > 0 && conf.Limit > 0 {
			rules[conf.Path] = &rule{
				interceptor: interceptor.NewInterceptor(rdb, conf.WindowSeconds, conf.Limit),
				byUser:      conf.ByUser,
			}
		}
	}

	defaultRule := &rule{
		interceptor: interceptor.NewInterceptor(rdb, 1, 2),
	}

	return func(ctx context.Context, c *app.RequestContext) {
		path := string(c.Request.URI().Path())

		r, ok := rules[path]
		if !ok {
			r = defaultRule
		}

		key := c.ClientIP()
		if r.byUser {
			if uid := policy.GetIdentity(ctx).UserID; uid != "" {
				key = "user:" + uid
			}
		}
		key = path + ":" + key

		allowed, err := r.interceptor.Allow(ctx, key)
		if err != nil {
			// fail open
			hlog.CtxErrorf(ctx, "rate limit err, key: %s, err: %v", key, err)
			c.Next(ctx)
			return
		}

		if !allowed {
			hlog.CtxNoticef(ctx, "rate limited, key: %s", key)
			resp.AbortWithErr(c, errs.TooManyRequest, consts.StatusTooManyRequests)
			return
		}

		c.Next(ctx)
	}
}

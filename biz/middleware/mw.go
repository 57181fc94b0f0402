package middleware

import (
	"passport/biz/config"
	"passport/biz/db/redis"
	"passport/biz/middleware/accesslog"
	"passport/biz/middleware/cors"
	"passport/biz/middleware/policy"
	"passport/biz/middleware/ratelimit"
	"passport/biz/middleware/trace"
	"passport/biz/service/session"
	"passport/biz/service/token"
	"passport/biz/util/lock"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/middlewares/server/recovery"
)

func Suite(table policy.Table) []app.HandlerFunc {
	issuer := token.NewDefault()
	return []app.HandlerFunc{
		recovery.Recovery(), // panic handler
		trace.New(),         // 链路ID
		accesslog.New(),     // 接口日志
		cors.New(config.GetCORSConf()),
		policy.New(table, issuer, session.NewDefault(issuer.Expiration()), lock.NewDefault()), // 鉴权 + 路由锁
		ratelimit.New(redis.GetRedisClient(), config.GetRateLimitConf()),                      // 限流，依赖鉴权结果
	}
}

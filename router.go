package passport

import (
	"passport/biz/config"
	"passport/biz/db/redis"
	"passport/biz/handler"
	"passport/biz/middleware"
	"passport/biz/middleware/policy"
	"passport/biz/middleware/security"
	"passport/biz/service/login"

	"github.com/cloudwego/hertz/pkg/app/server"
)

// routePolicy lists every route. A route left out requires auth.
var routePolicy = policy.Table{
	"/api/v1/user":            {RequiresAuth: false},
	"/api/v1/user/login":      {RequiresAuth: false},
	"/api/v1/user/logout":     {RequiresAuth: true},
	"/api/v1/user/logout_all": {RequiresAuth: true, LockKey: login.LockFamily},
	"/api/v1/user/info":       {RequiresAuth: true},
}

func register(h *server.Hertz) {
	h.Use(middleware.Suite(routePolicy)...)

	v1 := h.Group("/api/v1")
	v1.POST("/user", handler.Register)

	user := v1.Group("/user")
	user.POST("/login",
		security.NewLoginProtection(redis.GetRedisClient(), config.GetLoginProtectionConf()),
		handler.Login,
	)
	user.POST("/logout", handler.Logout)
	user.POST("/logout_all", handler.LogoutAll)
	user.GET("/info", handler.GetUserInfo)
}

package cors

import (
	"slices"
	"time"

	"passport/biz/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/cors"
)

var (
	defaultMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	defaultHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Log-ID"}
)

func New(conf config.CORSConf) app.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     orDefault(conf.AllowMethods, defaultMethods),
		AllowHeaders:     orDefault(conf.AllowHeaders, defaultHeaders),
		ExposeHeaders:    []string{"X-Log-ID"},
		AllowCredentials: conf.AllowCredentials,
		MaxAge:           time.Duration(conf.MaxAge) * time.Second,
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 12 * time.Hour
	}

	switch {
	case len(conf.AllowOrigins) == 0:
		// same-origin only
		cfg.AllowOriginFunc = func(string) bool { return false }
	case slices.Contains(conf.AllowOrigins, "*"):
		if cfg.AllowCredentials {
			// config.Validate refuses this, callers building CORSConf by hand get it downgraded
			hlog.Warnf("cors: wildcard origin with credentials, credentials disabled")
			cfg.AllowCredentials = false
		}
		cfg.AllowAllOrigins = true
	default:
		cfg.AllowOrigins = conf.AllowOrigins
	}

	return cors.New(cfg)
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

package accesslog

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/logger/accesslog"
)

// New logs one line per request. Query params are left out since login
// clients have been seen putting credentials there.
func New() app.HandlerFunc {
	return accesslog.New(
		accesslog.WithAccessLogFunc(hlog.CtxInfof),
		accesslog.WithFormat("[${ip}] ${status} ${latency} ${method} ${path}"),
	)
}

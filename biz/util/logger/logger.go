package logger

import (
	"context"
	"strings"

	"passport/biz/util/trace_info"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

func Init() {
	hlog.SetLogger(&ctxLogger{FullLogger: hlog.DefaultLogger()})
	hlog.SetOutput(newOutput())
	hlog.SetLevel(newLevel())
}

// ctxLogger prefixes every Ctx* line with the log id carried by the request.
type ctxLogger struct {
	hlog.FullLogger
}

func withLogID(ctx context.Context, format string) string {
	logID := trace_info.GetLogID(ctx)
	if logID == "" {
		return format
	}
	return "[" + logID + "] " + format
}

func (l *ctxLogger) CtxTracef(ctx context.Context, format string, v ...interface{}) {
	l.FullLogger.CtxTracef(ctx, withLogID(ctx, format), v...)
}

func (l *ctxLogger) CtxDebugf(ctx context.Context, format string, v ...interface{}) {
	l.FullLogger.CtxDebugf(ctx, withLogID(ctx, format), v...)
}

func (l *ctxLogger) CtxInfof(ctx context.Context, format string, v ...interface{}) {
	l.FullLogger.CtxInfof(ctx, withLogID(ctx, format), v...)
}

func (l *ctxLogger) CtxNoticef(ctx context.Context, format string, v ...interface{}) {
	l.FullLogger.CtxNoticef(ctx, withLogID(ctx, format), v...)
}

func (l *ctxLogger) CtxWarnf(ctx context.Context, format string, v ...interface{}) {
	l.FullLogger.CtxWarnf(ctx, withLogID(ctx, format), v...)
}

func (l *ctxLogger) CtxErrorf(ctx context.Context, format string, v ...interface{}) {
	l.FullLogger.CtxErrorf(ctx, withLogID(ctx, format), v...)
}

func (l *ctxLogger) CtxFatalf(ctx context.Context, format string, v ...interface{}) {
	l.FullLogger.CtxFatalf(ctx, withLogID(ctx, format), v...)
}

// Redact masks a secret for diagnostics. Nothing of the secret survives and
// the mask length is capped.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	return strings.Repeat("*", min(len(secret), 8))
}

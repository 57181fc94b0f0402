package logger

import (
	"bytes"
	"context"
	"testing"

	"passport/biz/util/random"
	"passport/biz/util/trace_info"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/stretchr/testify/assert"
)

func TestHlog(t *testing.T) {
	Init()

	var buf bytes.Buffer
	hlog.SetOutput(&buf)
	defer hlog.SetOutput(newOutput())

	logID := random.RandStr(32)
	ctx := trace_info.WithLogID(context.Background(), logID)

	hlog.CtxInfof(ctx, "test info data: %d, %s", 123, "ttt")
	hlog.CtxErrorf(ctx, "test error data: %d, %s", 123, "ttt")
	hlog.Infof("test info data: %d, %s", 123, "ttt")

	out := buf.String()
	assert.Contains(t, out, "["+logID+"] test info data: 123, ttt")
	assert.Contains(t, out, "["+logID+"] test error data: 123, ttt")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "******", Redact("secret"))
	assert.Equal(t, "********", Redact("a-very-long-password"))
	assert.NotContains(t, Redact("secret"), "secret")
}

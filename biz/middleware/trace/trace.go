package trace

import (
	"context"

	"passport/biz/util/id_gen"
	"passport/biz/util/trace_info"

	"github.com/cloudwego/hertz/pkg/app"
)

const headerKeyLogID = "X-Log-ID"

// New tags each request with a log id, taken from the caller when present,
// and echoes it back in the response header.
func New() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		logID := c.Request.Header.Get(headerKeyLogID)
		if logID == "" {
			logID = id_gen.NewID()
		}
		ctx = trace_info.WithLogID(ctx, logID)
		c.Header(headerKeyLogID, logID)
		c.Next(ctx)
	}
}

package resp

import (
	"net/http"

	"passport/biz/model/dto"
	"passport/biz/model/errs"

	"github.com/cloudwego/hertz/pkg/app"
)

func respWithErr(c *app.RequestContext, httpCode int, data any, err error) {
	if err == nil {
		c.JSON(http.StatusOK, &dto.CommonResp{
			Success: true,
			Code:    int(errs.Success.Code()),
			Message: errs.Success.Msg(),
			Data:    data,
		})
		return
	}

	if bizErr, ok := err.(errs.Error); ok {
		c.JSON(httpCode, &dto.CommonResp{
			Success: false,
			Code:    int(bizErr.Code()),
			Message: bizErr.Msg(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, &dto.CommonResp{
		Success: false,
		Code:    int(errs.ServerError.Code()),
		Message: errs.ServerError.Msg(),
	})
}

func SuccessResp(c *app.RequestContext, data any) {
	respWithErr(c, http.StatusOK, data, nil)
}

func FailResp(c *app.RequestContext, bizErr errs.Error) {
	respWithErr(c, http.StatusOK, nil, bizErr)
}

// FailRespWithStatus is FailResp for failures that should not look like a
// plain business rejection on the wire, such as an unavailable store.
func FailRespWithStatus(c *app.RequestContext, httpCode int, bizErr errs.Error) {
	respWithErr(c, httpCode, nil, bizErr)
}

func AbortWithErr(c *app.RequestContext, bizErr errs.Error, httpCode int) {
	c.AbortWithStatusJSON(httpCode, &dto.CommonResp{
		Success: false,
		Code:    int(bizErr.Code()),
		Message: bizErr.Msg(),
	})
}

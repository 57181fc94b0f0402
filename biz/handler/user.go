package handler

import (
	"context"
	"net/http"

	"passport/biz/middleware/policy"
	"passport/biz/model/dto"
	"passport/biz/model/errs"
	"passport/biz/service/login"
	"passport/biz/util/resp"
	"passport/biz/util/validate"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// bind runs BindAndValidate with the validator installed on the engine.
func bind(ctx context.Context, c *app.RequestContext, req any) bool {
	err := c.BindAndValidate(req)
	if err == nil {
		return true
	}
	if validate.IsValidationErr(err) {
		hlog.CtxNoticef(ctx, "Validate err: %v", err)
		resp.AbortWithErr(c, errs.ParamError.SetMsg(err.Error()), http.StatusBadRequest)
		return false
	}
	// decoder errors quote the raw body, which may hold a password
	hlog.CtxNoticef(ctx, "bind body failed, path: %s, err type: %T", c.FullPath(), err)
	resp.AbortWithErr(c, errs.ParamError, http.StatusBadRequest)
	return false
}

// failResp marks infrastructure failures with 500 so they are never mistaken
// for a credential rejection.
func failResp(c *app.RequestContext, bizErr errs.Error) {
	switch {
	case errs.ErrorEqual(bizErr, errs.StoreUnavailable),
		errs.ErrorEqual(bizErr, errs.TokenGenerationError),
		errs.ErrorEqual(bizErr, errs.ServerError):
		resp.FailRespWithStatus(c, http.StatusInternalServerError, bizErr)
	case errs.ErrorEqual(bizErr, errs.Unauthorized):
		resp.FailRespWithStatus(c, http.StatusUnauthorized, bizErr)
	default:
		resp.FailResp(c, bizErr)
	}
}

// Register 用户注册接口
//
//	@Tags			user
//	@Summary		用户注册接口
//	@Description	用户注册接口
//	@Accept			json
//	@Produce		json
//	@Param			req	body		dto.RegisterReq	true	"register request body"
//	@Success		200	{object}	dto.CommonResp{data=dto.RegisterResp}
//	@Router			/api/v1/user [POST]
func Register(ctx context.Context, c *app.RequestContext) {
	var req dto.RegisterReq
	if !bind(ctx, c, &req) {
		return
	}
	hlog.CtxDebugf(ctx, "register req: %v", req)

	a, bizErr := login.NewDefault().Register(ctx, &req)
	if bizErr != nil {
		failResp(c, bizErr)
		return
	}

	resp.SuccessResp(c, dto.RegisterResp{UserID: a.UserID})
}

// Login 用户登录接口
//
//	@Tags			user
//	@Summary		用户登录接口
//	@Description	校验账号密码，为 (账号, 设备签名) 签发 token
//	@Accept			json
//	@Produce		json
//	@Param			req	body		dto.LoginReq	true	"login request body"
//	@Success		200	{object}	dto.CommonResp{data=dto.LoginResp}
//	@Router			/api/v1/user/login [POST]
func Login(ctx context.Context, c *app.RequestContext) {
	var req dto.LoginReq
	if !bind(ctx, c, &req) {
		return
	}
	hlog.CtxDebugf(ctx, "login req: %v", req)

	info, bizErr := login.NewDefault().Login(ctx, &req)
	if bizErr != nil {
		failResp(c, bizErr)
		return
	}

	resp.SuccessResp(c, dto.LoginResp{
		Token:     info.Token,
		UserID:    info.UserID,
		IssuedAt:  info.IssuedAt.Unix(),
		ExpiresAt: info.ExpiresAt.Unix(),
	})
}

// Logout 用户登出接口，只注销当前设备
//
//	@Tags			user
//	@Summary		用户登出接口
//	@Description	用户登出接口
//	@Accept			json
//	@Produce		json
//	@Param			Authorization	header		string	true	"Bearer token"
//	@Success		200				{object}	dto.CommonResp{data=dto.LogoutResp}
//	@Router			/api/v1/user/logout [POST]
func Logout(ctx context.Context, c *app.RequestContext) {
	ident := policy.GetIdentity(ctx)
	if bizErr := login.NewLogoutDefault().Logout(ctx, ident.UserID, ident.Signature); bizErr != nil {
		failResp(c, bizErr)
		return
	}
	resp.SuccessResp(c, dto.LogoutResp{})
}

// LogoutAll 注销全部设备
//
//	@Tags			user
//	@Summary		注销全部设备
//	@Description	注销全部设备
//	@Accept			json
//	@Produce		json
//	@Param			Authorization	header		string	true	"Bearer token"
//	@Success		200				{object}	dto.CommonResp{data=dto.LogoutResp}
//	@Router			/api/v1/user/logout_all [POST]
func LogoutAll(ctx context.Context, c *app.RequestContext) {
	if bizErr := login.NewLogoutDefault().LogoutAll(ctx, policy.GetIdentity(ctx).UserID); bizErr != nil {
		failResp(c, bizErr)
		return
	}
	resp.SuccessResp(c, dto.LogoutResp{})
}

// GetUserInfo 获取用户信息接口
//
//	@Tags			user
//	@Summary		获取用户信息接口
//	@Description	获取用户信息接口
//	@Accept			json
//	@Produce		json
//	@Param			Authorization	header		string	true	"Bearer token"
//	@Success		200				{object}	dto.CommonResp{data=dto.GetUserInfoResp}
//	@Router			/api/v1/user/info [GET]
func GetUserInfo(ctx context.Context, c *app.RequestContext) {
	userID := policy.GetIdentity(ctx).UserID
	if userID == "" {
		resp.FailResp(c, errs.Unauthorized)
		return
	}

	a, bizErr := login.NewDefault().GetByUserID(ctx, userID)
	if bizErr != nil {
		failResp(c, bizErr)
		return
	}

	resp.SuccessResp(c, dto.GetUserInfoResp{
		UserID:    a.UserID,
		Account:   a.Account,
		Phone:     a.Phone,
		State:     a.State.String(),
		CreatedAt: a.CreatedAt.Unix(),
	})
}

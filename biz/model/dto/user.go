package dto

import (
	"fmt"

	"passport/biz/util/logger"
)

type RegisterReq struct {
	Account  string `json:"account" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
	Phone    string `json:"phone" validate:"max=32"`
}

// String masks the password so the request is safe to log.
func (r RegisterReq) String() string {
	return fmt.Sprintf("{Account:%s Password:%s Phone:%s}", r.Account, logger.Redact(r.Password), r.Phone)
}

type RegisterResp struct {
	UserID string `json:"user_id"`
}

type LoginReq struct {
	Account   string `json:"account" validate:"required,max=64"`
	Password  string `json:"password" validate:"required,max=128"`
	Signature string `json:"signature" validate:"required,max=128"`
}

// String masks the password so the request is safe to log.
func (r LoginReq) String() string {
	return fmt.Sprintf("{Account:%s Password:%s Signature:%s}", r.Account, logger.Redact(r.Password), r.Signature)
}

type LoginResp struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

type LogoutReq struct{}

type LogoutResp struct{}

type GetUserInfoReq struct{}

type GetUserInfoResp struct {
	UserID    string `json:"user_id"`
	Account   string `json:"account"`
	Phone     string `json:"phone"`
	State     string `json:"state"`
	CreatedAt int64  `json:"created_at"`
}

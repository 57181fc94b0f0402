package errs

import "fmt"

type Error interface {
	Error() string
	Code() int32
	Msg() string
	SetErr(err error) Error
	SetMsg(msg string) Error
}

type bizError struct {
	code int32
	msg  string
}

func (bizErr *bizError) Error() string {
	return fmt.Sprintf("%d:%s", bizErr.code, bizErr.msg)
}

func (bizErr *bizError) Code() int32 {
	return bizErr.code
}

func (bizErr *bizError) Msg() string {
	return bizErr.msg
}

func (bizErr *bizError) SetErr(err error) Error {
	return New(bizErr.Code(), err.Error())
}

func (bizErr *bizError) SetMsg(msg string) Error {
	return New(bizErr.Code(), msg)
}

func New(code int32, msg string) Error {
	return &bizError{
		code: code,
		msg:  msg,
	}
}

func ErrorEqual(err1, err2 Error) bool {
	// 都为空
	if err1 == nil && err2 == nil {
		return true
	}

	// 只有一个不为空
	if err1 == nil || err2 == nil {
		return false
	}

	// 都不为空
	return err1.Code() == err2.Code()
}

// IsBizErr reports whether err is a business failure (wrong credentials,
// account state, ...). Business failures must not be retried.
func IsBizErr(err Error) bool {
	return err != nil && err.Code() >= bizCodeBase
}

// Retryable reports whether err comes from an infrastructure dependency
// that may succeed on a later attempt.
func Retryable(err Error) bool {
	if err == nil {
		return false
	}
	switch err.Code() {
	case StoreUnavailable.Code(), LockTimeout.Code(), LockAcquisitionFailed.Code():
		return true
	}
	return false
}

const bizCodeBase = 2_0000

var (
	Success               = New(0, "success")
	ServerError           = New(1_0001, "internal server error")
	ParamError            = New(1_0002, "param error")
	Unauthorized          = New(1_0003, "user unauthorized")
	TooManyRequest        = New(1_0004, "too many request")
	RequestBlocked        = New(1_0006, "request is blocked")
	StoreUnavailable      = New(1_0008, "session store unavailable")
	TokenGenerationError  = New(1_0009, "token generation failed")
	LockTimeout           = New(1_0010, "wait for lock timeout")
	LockAcquisitionFailed = New(1_0011, "acquire lock failed")

	IncorrectUsernameOrPassword = New(2_0001, "incorrect username or password")
	// AccountNotFound and CredentialMismatch share one code so a caller
	// cannot tell which accounts exist.
	AccountNotFound     = IncorrectUsernameOrPassword
	CredentialMismatch  = IncorrectUsernameOrPassword
	AccountFrozen       = New(2_0002, "account is frozen")
	AccountStateInvalid = New(2_0003, "account is unavailable")
	AccountDuplicated   = New(2_0004, "account duplicated")
)

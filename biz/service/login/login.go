package login

import (
	"context"
	"errors"
	"time"

	"passport/biz/dal/repo"
	"passport/biz/db/mysql"
	"passport/biz/model/domain"
	"passport/biz/model/dto"
	"passport/biz/model/errs"
	"passport/biz/service/session"
	"passport/biz/service/token"
	"passport/biz/util/encode"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/sethvargo/go-retry"
)

type TokenIssuer interface {
	GenerateToken(userID, signature string) (*domain.TokenInfo, error)
}

// dummySalt and dummyDigest are hashed against when the account does not
// exist, so a miss costs the same as a password mismatch.
const (
	dummySalt   = "0000000000000000"
	dummyDigest = "0000000000000000000000000000000000000000000000000000000000000000"
)

type Service struct {
	accounts repo.AccountRepository
	issuer   TokenIssuer
	sessions session.Store

	saveRetries uint64
	saveBackoff time.Duration
}

func New(accounts repo.AccountRepository, issuer TokenIssuer, sessions session.Store) *Service {
	return &Service{
		accounts:    accounts,
		issuer:      issuer,
		sessions:    sessions,
		saveRetries: 2,
		saveBackoff: 50 * time.Millisecond,
	}
}

func NewDefault() *Service {
	issuer := token.NewDefault()
	return New(
		repo.NewAccountRepositoryGorm(mysql.GetDbConn()),
		issuer,
		session.NewDefault(issuer.Expiration()),
	)
}

// Login verifies the credentials of req, mints a token bound to the account
// and req.Signature, and records it as the active session of that pair.
// A token is only returned once the store has accepted it.
func (s *Service) Login(ctx context.Context, req *dto.LoginReq) (*domain.TokenInfo, errs.Error) {
	a, err := s.accounts.FindByAccount(ctx, req.Account)
	if err != nil {
		hlog.CtxErrorf(ctx, "FindByAccount err: %v, account: %s", err, req.Account)
		return nil, errs.ServerError
	}
	if a == nil {
		encode.VerifyPassword(dummySalt, req.Password, dummyDigest)
		hlog.CtxNoticef(ctx, "login failed, account not exist: %s", req.Account)
		return nil, errs.AccountNotFound
	}

	if !encode.VerifyPassword(a.Salt, req.Password, a.PasswordHash) {
		hlog.CtxNoticef(ctx, "login failed, password mismatch, account: %s", req.Account)
		return nil, errs.CredentialMismatch
	}

	if bizErr := checkState(a.State); bizErr != nil {
		hlog.CtxNoticef(ctx, "login refused, account: %s, state: %s", req.Account, a.State)
		return nil, bizErr
	}

	info, err := s.issuer.GenerateToken(a.UserID, req.Signature)
	if err != nil {
		hlog.CtxErrorf(ctx, "GenerateToken err: %v, user_id: %s", err, a.UserID)
		return nil, errs.TokenGenerationError
	}

	if err := s.saveSession(ctx, a.UserID, req.Signature, info.Token); err != nil {
		hlog.CtxErrorf(ctx, "save session err: %v, user_id: %s, signature: %s", err, a.UserID, req.Signature)
		return nil, errs.StoreUnavailable
	}

	hlog.CtxInfof(ctx, "login success, account: %s, user_id: %s, signature: %s, expires_at: %s",
		req.Account, a.UserID, req.Signature, info.ExpiresAt.Format(time.RFC3339))
	return info, nil
}

// saveSession retries the upsert a bounded number of times. Retrying is safe
// because a save for the same key overwrites.
func (s *Service) saveSession(ctx context.Context, userID, signature, tokenStr string) error {
	backoff := retry.WithMaxRetries(s.saveRetries, retry.NewExponential(s.saveBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.sessions.Save(ctx, userID, signature, tokenStr); err != nil {
			hlog.CtxWarnf(ctx, "session save attempt failed: %v", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Register creates a NORMAL account with a fresh salt.
func (s *Service) Register(ctx context.Context, req *dto.RegisterReq) (*domain.Account, errs.Error) {
	existing, err := s.accounts.FindByAccount(ctx, req.Account)
	if err != nil {
		hlog.CtxErrorf(ctx, "FindByAccount err: %v, account: %s", err, req.Account)
		return nil, errs.ServerError
	}
	if existing != nil {
		return nil, errs.AccountDuplicated
	}

	salt := encode.CreateSalt()
	a := &domain.Account{
		Account:      req.Account,
		PasswordHash: encode.EncodePassword(salt, req.Password),
		Salt:         salt,
		State:        domain.StateNormal,
		Phone:        req.Phone,
	}
	userID, err := s.accounts.Insert(ctx, a)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicated) {
			return nil, errs.AccountDuplicated
		}
		hlog.CtxErrorf(ctx, "Insert account err: %v, account: %s", err, req.Account)
		return nil, errs.ServerError
	}
	a.UserID = userID

	hlog.CtxInfof(ctx, "account created, account: %s, user_id: %s", a.Account, a.UserID)
	return a, nil
}

func (s *Service) GetByUserID(ctx context.Context, userID string) (*domain.Account, errs.Error) {
	a, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		hlog.CtxErrorf(ctx, "FindByUserID err: %v, user_id: %s", err, userID)
		return nil, errs.ServerError
	}
	if a == nil {
		// the caller holds a live token, a credential error would be misleading
		hlog.CtxNoticef(ctx, "account of live session not exist, user_id: %s", userID)
		return nil, errs.Unauthorized
	}
	return a, nil
}

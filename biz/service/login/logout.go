package login

import (
	"context"
	"errors"

	"passport/biz/model/errs"
	"passport/biz/service/session"
	"passport/biz/service/token"
	"passport/biz/util/lock"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// LockFamily scopes the logout lock. Every logout of one user, single
// device or all devices, serializes on lock.Key(LockFamily, userID).
const LockFamily = "logout"

// LogoutService revokes session entries.
//
// It takes userID on trust: the caller must already have authenticated the
// request for that user. No password or token is checked here.
type LogoutService struct {
	sessions session.Store
	locker   lock.Locker
}

func NewLogoutService(sessions session.Store, locker lock.Locker) *LogoutService {
	return &LogoutService{sessions: sessions, locker: locker}
}

func NewLogoutDefault() *LogoutService {
	return NewLogoutService(session.NewDefault(token.NewDefault().Expiration()), lock.NewDefault())
}

// Logout deletes the session of (userID, signature) under the user's logout
// lock. Logging out a session that does not exist succeeds.
func (s *LogoutService) Logout(ctx context.Context, userID, signature string) errs.Error {
	if userID == "" {
		return errs.Unauthorized
	}

	err := s.locker.WithLock(ctx, lock.Key(LockFamily, userID), func(ctx context.Context) error {
		return s.sessions.Del(ctx, userID, signature)
	})
	if err != nil {
		hlog.CtxErrorf(ctx, "logout err: %v, user_id: %s, signature: %s", err, userID, signature)
		return toBizErr(err)
	}

	hlog.CtxInfof(ctx, "logout success, user_id: %s, signature: %s", userID, signature)
	return nil
}

// LogoutAll deletes every session of userID. It does not lock by itself;
// the route running it holds the LockFamily lock.
func (s *LogoutService) LogoutAll(ctx context.Context, userID string) errs.Error {
	if userID == "" {
		return errs.Unauthorized
	}

	n, err := s.sessions.DelAll(ctx, userID)
	if err != nil {
		hlog.CtxErrorf(ctx, "logout all err: %v, user_id: %s, removed: %d", err, userID, n)
		return toBizErr(err)
	}

	hlog.CtxInfof(ctx, "logout all success, user_id: %s, removed: %d", userID, n)
	return nil
}

func toBizErr(err error) errs.Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, lock.ErrLockTimeout):
		return errs.LockTimeout
	case errors.Is(err, lock.ErrNotAcquired):
		return errs.LockAcquisitionFailed
	case errors.Is(err, session.ErrStoreUnavailable):
		return errs.StoreUnavailable
	}
	return errs.ServerError
}

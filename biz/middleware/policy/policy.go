package policy

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"passport/biz/model/errs"
	"passport/biz/service/session"
	"passport/biz/service/token"
	"passport/biz/util/lock"
	"passport/biz/util/resp"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// Rule is the policy of one route.
type Rule struct {
	// RequiresAuth demands a token whose session entry is still live.
	RequiresAuth bool
	// LockKey, when set, runs the handler inside lock.Key(LockKey, userID).
	// It needs RequiresAuth.
	LockKey string
}

// Table maps a route path, as registered, to its Rule. Routes missing from
// the table require authentication.
type Table map[string]Rule

func (t Table) Lookup(path string) Rule {
	if r, ok := t[path]; ok {
		return r
	}
	return Rule{RequiresAuth: true}
}

type TokenParser interface {
	ParseToken(tokenStr string) (*token.Claims, error)
}

type Identity struct {
	UserID    string
	Signature string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// GetIdentity returns the authenticated caller, or a zero Identity on routes
// that do not require auth.
func GetIdentity(ctx context.Context) Identity {
	ident, _ := ctx.Value(identityKey{}).(Identity)
	return ident
}

func New(table Table, parser TokenParser, sessions session.Store, locker lock.Locker) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		rule := table.Lookup(c.FullPath())
		if !rule.RequiresAuth {
			c.Next(ctx)
			return
		}

		ident, bizErr, status := authenticate(ctx, c, parser, sessions)
		if bizErr != nil {
			resp.AbortWithErr(c, bizErr, status)
			return
		}
		ctx = WithIdentity(ctx, ident)

		if rule.LockKey == "" {
			c.Next(ctx)
			return
		}

		err := locker.WithLock(ctx, lock.Key(rule.LockKey, ident.UserID), func(ctx context.Context) error {
			c.Next(ctx)
			return nil
		})
		if err != nil {
			hlog.CtxNoticef(ctx, "route lock %s err: %v", rule.LockKey, err)
			if errors.Is(err, lock.ErrLockTimeout) {
				resp.AbortWithErr(c, errs.LockTimeout, http.StatusOK)
				return
			}
			resp.AbortWithErr(c, errs.LockAcquisitionFailed, http.StatusOK)
		}
	}
}

func authenticate(ctx context.Context, c *app.RequestContext, parser TokenParser, sessions session.Store) (Identity, errs.Error, int) {
	tokenStr := extractToken(c)
	if tokenStr == "" {
		hlog.CtxInfof(ctx, "authorization failed, token is empty")
		return Identity{}, errs.Unauthorized, http.StatusUnauthorized
	}

	claims, err := parser.ParseToken(tokenStr)
	if err != nil {
		hlog.CtxInfof(ctx, "token invalid: %v", err)
		return Identity{}, errs.Unauthorized, http.StatusUnauthorized
	}

	stored, ok, err := sessions.Lookup(ctx, claims.UserID, claims.Signature)
	if err != nil {
		hlog.CtxErrorf(ctx, "session lookup err: %v", err)
		return Identity{}, errs.StoreUnavailable, http.StatusInternalServerError
	}
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(tokenStr)) != 1 {
		hlog.CtxInfof(ctx, "session revoked or replaced, user_id: %s, signature: %s", claims.UserID, claims.Signature)
		return Identity{}, errs.Unauthorized, http.StatusUnauthorized
	}

	return Identity{UserID: claims.UserID, Signature: claims.Signature}, nil, 0
}

func extractToken(c *app.RequestContext) string {
	v := strings.TrimSpace(c.Request.Header.Get("Authorization"))
	return strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
}

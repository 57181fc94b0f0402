package passport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"passport"
	"passport/biz/config"
	"passport/biz/db/mysql"
	redisdb "passport/biz/db/redis"
	"passport/biz/model/domain"
	"passport/biz/model/dto"
	"passport/biz/model/errs"
	"passport/biz/model/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/test/assert"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/glebarez/sqlite"
)

var (
	testEngine *server.Hertz
	testRedis  *miniredis.Miniredis
)

func TestMain(m *testing.M) {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	testRedis = mr
	dir, err := os.MkdirTemp("", "passport_test_conf_*")
	if err != nil {
		panic(err)
	}
	confPath := filepath.Join(dir, "deploy.yml")
	confStr := `redis:
  ip: "` + mr.Host() + `"
  port: ` + mr.Port() + `
  password: ""
  db: 0

token:
  issuer: "test"
  secret: "e2e-secret-0123456789"
  expiration: 3600

lock:
  ttl_ms: 5000
  wait_ms: 100
  retry_interval_ms: 10

cors:
  allow_origins:
    - "*"

rate_limit:
  - path: "/api/v1/user"
    window_seconds: 1
    limit: 100
  - path: "/api/v1/user/login"
    window_seconds: 1
    limit: 100
  - path: "/api/v1/user/info"
    window_seconds: 1
    limit: 100
    by_user: true
  - path: "/api/v1/user/logout"
    window_seconds: 1
    limit: 100
    by_user: true
  - path: "/api/v1/user/logout_all"
    window_seconds: 1
    limit: 100
    by_user: true

login_protection:
  window_seconds: 300
  limit: 3
`
	if err := os.WriteFile(confPath, []byte(confStr), 0600); err != nil {
		panic(err)
	}
	config.Init(confPath)
	redisdb.Init()
	mysql.InitWithDialector(sqlite.Open("file::memory:?cache=shared"))
	sqlDB, err := mysql.GetDbConn().DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	testEngine = passport.NewEngine()
	code := m.Run()
	mr.Close()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestServer(t *testing.T) *server.Hertz {
	t.Helper()
	redisdb.GetRedisClient().FlushAll(context.Background())
	return testEngine
}

func perform(h *server.Hertz, method, url string, body string, headers ...ut.Header) *ut.ResponseRecorder {
	var b *ut.Body
	if body != "" {
		b = &ut.Body{Body: bytes.NewBufferString(body), Len: len(body)}
	}
	allHeaders := append([]ut.Header{{Key: "Content-Type", Value: "application/json"}}, headers...)
	return ut.PerformRequest(h.Engine, method, url, b, allHeaders...)
}

func bearer(token string) ut.Header {
	return ut.Header{Key: "Authorization", Value: "Bearer " + token}
}

func decodeCommonResp(t *testing.T, respBody []byte) dto.CommonResp {
	t.Helper()
	var r dto.CommonResp
	err := json.Unmarshal(respBody, &r)
	assert.Nil(t, err)
	return r
}

func decodeData(t *testing.T, r dto.CommonResp, out any) {
	t.Helper()
	dataBytes, err := json.Marshal(r.Data)
	assert.Nil(t, err)
	assert.Nil(t, json.Unmarshal(dataBytes, out))
}

func register(t *testing.T, h *server.Hertz, account, password string) string {
	t.Helper()
	body := `{"account":"` + account + `","password":"` + password + `","phone":"13800000000"}`
	w := perform(h, http.MethodPost, "/api/v1/user", body)
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())

	r := decodeCommonResp(t, w.Result().Body())
	assert.True(t, r.Success)
	var reg dto.RegisterResp
	decodeData(t, r, &reg)
	assert.True(t, reg.UserID != "")
	return reg.UserID
}

func login(h *server.Hertz, account, password, signature string) *ut.ResponseRecorder {
	body := `{"account":"` + account + `","password":"` + password + `","signature":"` + signature + `"}`
	return perform(h, http.MethodPost, "/api/v1/user/login", body)
}

func loginOK(t *testing.T, h *server.Hertz, account, password, signature string) dto.LoginResp {
	t.Helper()
	w := login(h, account, password, signature)
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())

	r := decodeCommonResp(t, w.Result().Body())
	assert.True(t, r.Success)
	var lr dto.LoginResp
	decodeData(t, r, &lr)
	assert.True(t, lr.Token != "")
	return lr
}

func TestRegister_ParamError(t *testing.T) {
	h := newTestServer(t)

	w := perform(h, http.MethodPost, "/api/v1/user", "{")
	resp := w.Result()
	assert.DeepEqual(t, http.StatusBadRequest, resp.StatusCode())

	r := decodeCommonResp(t, resp.Body())
	assert.False(t, r.Success)
	assert.DeepEqual(t, int(errs.ParamError.Code()), r.Code)
}

func TestRegister_AccountTooLong(t *testing.T) {
	h := newTestServer(t)

	body := `{"account":"` + strings.Repeat("a", 65) + `","password":"pwd"}`
	w := perform(h, http.MethodPost, "/api/v1/user", body)
	assert.DeepEqual(t, http.StatusBadRequest, w.Result().StatusCode())
	assert.DeepEqual(t, int(errs.ParamError.Code()), decodeCommonResp(t, w.Result().Body()).Code)
}

func TestRegister_Duplicated(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "dup_acc", "pwd")

	w := perform(h, http.MethodPost, "/api/v1/user", `{"account":"dup_acc","password":"other"}`)
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())

	r := decodeCommonResp(t, w.Result().Body())
	assert.False(t, r.Success)
	assert.DeepEqual(t, int(errs.AccountDuplicated.Code()), r.Code)
}

func TestLogin_ParamError(t *testing.T) {
	h := newTestServer(t)

	t.Run("bad json", func(t *testing.T) {
		w := perform(h, http.MethodPost, "/api/v1/user/login", "{")
		assert.DeepEqual(t, http.StatusBadRequest, w.Result().StatusCode())
	})

	t.Run("missing signature", func(t *testing.T) {
		w := perform(h, http.MethodPost, "/api/v1/user/login", `{"account":"a","password":"p"}`)
		assert.DeepEqual(t, http.StatusBadRequest, w.Result().StatusCode())
		assert.DeepEqual(t, int(errs.ParamError.Code()), decodeCommonResp(t, w.Result().Body()).Code)
	})
}

func TestLoginGetUserInfoAndLogout_SuccessFlow(t *testing.T) {
	h := newTestServer(t)
	userID := register(t, h, "alice", "s3cret")

	lr := loginOK(t, h, "alice", "s3cret", "deviceA")
	assert.DeepEqual(t, userID, lr.UserID)
	assert.True(t, lr.ExpiresAt > lr.IssuedAt)

	w := perform(h, http.MethodGet, "/api/v1/user/info", "", bearer(lr.Token))
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())
	r := decodeCommonResp(t, w.Result().Body())
	assert.True(t, r.Success)
	var info dto.GetUserInfoResp
	decodeData(t, r, &info)
	assert.DeepEqual(t, userID, info.UserID)
	assert.DeepEqual(t, "alice", info.Account)
	assert.DeepEqual(t, "13800000000", info.Phone)
	assert.DeepEqual(t, domain.StateNormal.String(), info.State)

	w = perform(h, http.MethodPost, "/api/v1/user/logout", "{}", bearer(lr.Token))
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())
	assert.True(t, decodeCommonResp(t, w.Result().Body()).Success)

	// the token is still well formed but its session is gone
	w = perform(h, http.MethodGet, "/api/v1/user/info", "", bearer(lr.Token))
	assert.DeepEqual(t, http.StatusUnauthorized, w.Result().StatusCode())

	w = perform(h, http.MethodPost, "/api/v1/user/logout", "{}", bearer(lr.Token))
	assert.DeepEqual(t, http.StatusUnauthorized, w.Result().StatusCode())
}

func TestLogin_RejectionsAreIndistinguishable(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "bob", "right")

	wrongPwd := login(h, "bob", "wrong", "deviceA")
	unknown := login(h, "nobody", "whatever", "deviceA")

	assert.DeepEqual(t, wrongPwd.Result().StatusCode(), unknown.Result().StatusCode())
	assert.DeepEqual(t, string(wrongPwd.Result().Body()), string(unknown.Result().Body()))

	r := decodeCommonResp(t, unknown.Result().Body())
	assert.False(t, r.Success)
	assert.DeepEqual(t, int(errs.IncorrectUsernameOrPassword.Code()), r.Code)
}

func TestLogin_AccountState(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "carol", "pwd")
	register(t, h, "dave", "pwd")

	db := mysql.GetDbConn()
	assert.Nil(t, db.Model(&storage.LoginRecord{}).Where("account = ?", "carol").
		Update("state", int8(domain.StateFreeze)).Error)
	assert.Nil(t, db.Model(&storage.LoginRecord{}).Where("account = ?", "dave").
		Update("state", int8(domain.StateDisabled)).Error)

	r := decodeCommonResp(t, login(h, "carol", "pwd", "deviceA").Result().Body())
	assert.False(t, r.Success)
	assert.DeepEqual(t, int(errs.AccountFrozen.Code()), r.Code)

	r = decodeCommonResp(t, login(h, "dave", "pwd", "deviceA").Result().Body())
	assert.False(t, r.Success)
	assert.DeepEqual(t, int(errs.AccountStateInvalid.Code()), r.Code)

	// a frozen account with a wrong password is still a credential failure
	r = decodeCommonResp(t, login(h, "carol", "bad", "deviceA").Result().Body())
	assert.DeepEqual(t, int(errs.IncorrectUsernameOrPassword.Code()), r.Code)
}

func TestLogin_DevicesAreIndependent(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "erin", "pwd")

	a := loginOK(t, h, "erin", "pwd", "deviceA")
	b := loginOK(t, h, "erin", "pwd", "deviceB")

	w := perform(h, http.MethodPost, "/api/v1/user/logout", "{}", bearer(a.Token))
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())

	w = perform(h, http.MethodGet, "/api/v1/user/info", "", bearer(a.Token))
	assert.DeepEqual(t, http.StatusUnauthorized, w.Result().StatusCode())
	w = perform(h, http.MethodGet, "/api/v1/user/info", "", bearer(b.Token))
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())
}

func TestLogin_SameDeviceReplacesToken(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "frank", "pwd")

	first := loginOK(t, h, "frank", "pwd", "deviceA")
	second := loginOK(t, h, "frank", "pwd", "deviceA")

	w := perform(h, http.MethodGet, "/api/v1/user/info", "", bearer(first.Token))
	assert.DeepEqual(t, http.StatusUnauthorized, w.Result().StatusCode())
	w = perform(h, http.MethodGet, "/api/v1/user/info", "", bearer(second.Token))
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())
}

func TestLogoutAll(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "grace", "pwd")

	a := loginOK(t, h, "grace", "pwd", "deviceA")
	b := loginOK(t, h, "grace", "pwd", "deviceB")

	w := perform(h, http.MethodPost, "/api/v1/user/logout_all", "{}", bearer(a.Token))
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())
	assert.True(t, decodeCommonResp(t, w.Result().Body()).Success)

	for _, tok := range []string{a.Token, b.Token} {
		w = perform(h, http.MethodGet, "/api/v1/user/info", "", bearer(tok))
		assert.DeepEqual(t, http.StatusUnauthorized, w.Result().StatusCode())
	}
}

func TestGetUserInfo_Unauthorized(t *testing.T) {
	h := newTestServer(t)

	w := perform(h, http.MethodGet, "/api/v1/user/info", "")
	assert.DeepEqual(t, http.StatusUnauthorized, w.Result().StatusCode())

	r := decodeCommonResp(t, w.Result().Body())
	assert.False(t, r.Success)
	assert.DeepEqual(t, int(errs.Unauthorized.Code()), r.Code)
}

func TestLogin_BruteForceBlocked(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "heidi", "pwd")

	for i := 0; i < 3; i++ {
		login(h, "heidi", "wrong", "deviceA")
	}

	w := login(h, "heidi", "pwd", "deviceA")
	assert.DeepEqual(t, http.StatusForbidden, w.Result().StatusCode())
	assert.DeepEqual(t, int(errs.RequestBlocked.Code()), decodeCommonResp(t, w.Result().Body()).Code)
}

func TestResponse_CarriesLogID(t *testing.T) {
	h := newTestServer(t)

	w := perform(h, http.MethodGet, "/api/v1/user/info", "", ut.Header{Key: "X-Log-ID", Value: "abc123"})
	assert.DeepEqual(t, "abc123", string(w.Result().Header.Peek("X-Log-ID")))
}

// syncBuffer collects log output written from request goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	out := &syncBuffer{}
	hlog.SetOutput(out)
	t.Cleanup(func() { hlog.SetOutput(os.Stderr) })
	return out
}

func TestBindError_NeverLogsPassword(t *testing.T) {
	h := newTestServer(t)
	const password = "Hunter2TopSecret"

	bodies := map[string]string{
		"syntax error":  `{"account":"alice","password":"` + password + `" "signature":"d"}`,
		"type mismatch": `{"account":"alice","password":["` + password + `"],"signature":"d"}`,
		"truncated":     `{"account":"alice","password":"` + password,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			logs := captureLogs(t)

			for _, url := range []string{"/api/v1/user/login", "/api/v1/user"} {
				w := perform(h, http.MethodPost, url, body)
				assert.DeepEqual(t, http.StatusBadRequest, w.Result().StatusCode())
				assert.DeepEqual(t, int(errs.ParamError.Code()), decodeCommonResp(t, w.Result().Body()).Code)
				if strings.Contains(string(w.Result().Body()), password[:6]) {
					t.Fatalf("response echoes the password: %s", w.Result().Body())
				}
			}

			out := logs.String()
			assert.True(t, strings.Contains(out, "bind body failed"))
			for i := 0; i+5 <= len(password); i++ {
				if frag := password[i : i+5]; strings.Contains(out, frag) {
					t.Fatalf("log contains password fragment %q: %s", frag, out)
				}
			}
		})
	}
}

func TestValidateError_NamesFieldOnly(t *testing.T) {
	h := newTestServer(t)
	logs := captureLogs(t)

	body := `{"account":"alice","password":"` + strings.Repeat("Hunter2TopSecret", 10) + `"}`
	w := perform(h, http.MethodPost, "/api/v1/user/login", body)
	assert.DeepEqual(t, http.StatusBadRequest, w.Result().StatusCode())

	r := decodeCommonResp(t, w.Result().Body())
	assert.True(t, strings.Contains(r.Message, "Signature"))
	assert.False(t, strings.Contains(r.Message, "Hunter2"))
	assert.False(t, strings.Contains(logs.String(), "Hunter2"))
}

func TestLogin_StoreDownIsServerError(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "ivan", "pwd")

	testRedis.Close()
	defer func() {
		if err := testRedis.Restart(); err != nil {
			t.Fatalf("restart redis: %v", err)
		}
	}()

	w := login(h, "ivan", "pwd", "deviceA")
	assert.DeepEqual(t, http.StatusInternalServerError, w.Result().StatusCode())

	r := decodeCommonResp(t, w.Result().Body())
	assert.False(t, r.Success)
	assert.DeepEqual(t, int(errs.StoreUnavailable.Code()), r.Code)
	assert.Nil(t, r.Data)

	// a credential rejection stays a plain business answer while the store is down
	w = login(h, "ivan", "wrong", "deviceA")
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())
	assert.DeepEqual(t, int(errs.IncorrectUsernameOrPassword.Code()), decodeCommonResp(t, w.Result().Body()).Code)
}

func TestLogin_WrongPasswordIsBusinessError(t *testing.T) {
	h := newTestServer(t)
	register(t, h, "judy", "pwd")

	w := login(h, "judy", "wrong", "deviceA")
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())

	r := decodeCommonResp(t, w.Result().Body())
	assert.False(t, r.Success)
	assert.DeepEqual(t, int(errs.IncorrectUsernameOrPassword.Code()), r.Code)
}

func TestLogout_LockHeld(t *testing.T) {
	h := newTestServer(t)
	userID := register(t, h, "mallory", "pwd")
	lr := loginOK(t, h, "mallory", "pwd", "deviceA")

	lockKey := "dist_lock:logout:" + userID
	assert.Nil(t, redisdb.GetRedisClient().Set(context.Background(), lockKey, "other", time.Minute).Err())

	for _, url := range []string{"/api/v1/user/logout", "/api/v1/user/logout_all"} {
		w := perform(h, http.MethodPost, url, "{}", bearer(lr.Token))
		assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())

		r := decodeCommonResp(t, w.Result().Body())
		assert.False(t, r.Success)
		assert.DeepEqual(t, int(errs.LockTimeout.Code()), r.Code)
	}

	// nothing was revoked
	w := perform(h, http.MethodGet, "/api/v1/user/info", "", bearer(lr.Token))
	assert.DeepEqual(t, http.StatusOK, w.Result().StatusCode())

	assert.Nil(t, redisdb.GetRedisClient().Del(context.Background(), lockKey).Err())
	w = perform(h, http.MethodPost, "/api/v1/user/logout", "{}", bearer(lr.Token))
	assert.True(t, decodeCommonResp(t, w.Result().Body()).Success)
}

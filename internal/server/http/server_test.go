package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/baleriaa/493/internal/logging"
	"github.com/baleriaa/493/internal/server/auth"
	"github.com/baleriaa/493/internal/server/metrics"
	"github.com/baleriaa/493/internal/server/models"
	"github.com/baleriaa/493/internal/server/ratelimit"
	"github.com/baleriaa/493/internal/server/repositories/repomanager"
	"github.com/baleriaa/493/internal/server/services"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testEnv struct {
	server  *HTTPServer
	handler http.Handler
	repos   *repomanager.InMemoryRepositoryManager
	tokens  *auth.TokenService
	metrics *metrics.Metrics
	users   *services.UserService
}

func newTestEnv(t *testing.T, limiter ratelimit.Limiter) *testEnv {
	t.Helper()

	repos := repomanager.NewInMemoryRepositoryManager()
	tokens, err := auth.NewTokenService(testSecret, 24*time.Hour)
	require.NoError(t, err)
	creds, err := services.NewCredentialStore(nil, repos, auth.NewBcryptHasher(bcrypt.MinCost), time.Second)
	require.NoError(t, err)

	users := services.NewUserService(creds, tokens)
	m := metrics.New()
	s := NewHTTPServer(":0", Deps{
		Users:     users,
		Resources: services.NewResourceService(nil, repos, nil, time.Second, logging.Discard()),
		Tokens:    tokens,
		Limiter:   limiter,
		Metrics:   m,
		Logger:    logging.Discard(),
	})
	return &testEnv{server: s, handler: s.Handler(), repos: repos, tokens: tokens, metrics: m, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, name, email, password string) models.PublicUser {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/users", "", map[string]string{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u models.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

func (e *testEnv) login(t *testing.T, identifier, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/users/login", "", map[string]string{"identifier": identifier, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out["token"])
	return out["token"]
}

func signed(t *testing.T, secret string, claims auth.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestScenario_RegisterLoginAccess(t *testing.T) {
	e := newTestEnv(t, nil)

	rec := e.do(t, http.MethodPost, "/users", "", map[string]string{"name": "alice", "email": "a@x.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, map[string]any{"id": 1.0, "name": "alice", "email": "a@x.com", "admin": false}, created)

	token := e.login(t, "alice", "secret123")
	e.repos.AddBusiness(models.Business{OwnerID: 1, Name: "Block 15"})

	rec = e.do(t, http.MethodGet, "/users/1/businesses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Businesses []models.Business `json:"businesses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Businesses, 1)
	assert.Equal(t, "Block 15", list.Businesses[0].Name)

	rec = e.do(t, http.MethodGet, "/users/1/businesses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	e.register(t, "bob", "b@x.com", "hunter22")
	bobToken := e.login(t, "b@x.com", "hunter22")
	rec = e.do(t, http.MethodGet, "/users/1/businesses", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/users", "", map[string]string{"name": "alice2", "email": "a@x.com", "password": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"name or email already in use"}`, rec.Body.String())
}

func TestAuthenticate_FailuresLookIdentical(t *testing.T) {
	e := newTestEnv(t, nil)
	e.register(t, "alice", "a@x.com", "pw")
	valid := e.login(t, "alice", "pw")

	expired := signed(t, testSecret, auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	wrongKey := signed(t, "other-secret", auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})

	cases := map[string]func(*http.Request){
		"missing":   func(r *http.Request) {},
		"scheme":    func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) },
		"empty":     func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		"malformed": func(r *http.Request) { r.Header.Set("Authorization", "Bearer not.a.jwt") },
		"expired":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) },
		"signature": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+wrongKey) },
	}

	for name, mutate := range cases {
		req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
		mutate(req)
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String(), name)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"), name)
	}

	f := e.metrics.AuthFailuresTotal
	assert.Equal(t, 3.0, testutil.ToFloat64(f.WithLabelValues("missing_credential")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.WithLabelValues("invalid_signature")))

	rec := e.do(t, http.MethodGet, "/users/1", valid, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_ReasonLoggedAtDebug(t *testing.T) {
	for _, level := range []string{"info", "debug"} {
		t.Run(level, func(t *testing.T) {
			var buf bytes.Buffer
			e := newTestEnv(t, nil)
			e.server.logger = logging.NewJSON(&buf, level)

			rec := e.do(t, http.MethodGet, "/users/1", "not.a.jwt", nil)
			require.Equal(t, http.StatusUnauthorized, rec.Code)

			out := buf.String()
			assert.Contains(t, out, `"msg":"authentication failed"`)
			assert.Contains(t, out, `"kind":"malformed"`)
			if level == "debug" {
				assert.Contains(t, out, `"msg":"token rejected"`)
				assert.Contains(t, out, `"error":`)
			} else {
				assert.NotContains(t, out, "token rejected")
				assert.NotContains(t, out, `"error":`)
			}
		})
	}
}

func TestRequireOwner(t *testing.T) {
	e := newTestEnv(t, nil)
	e.register(t, "alice", "a@x.com", "pw")
	alice := e.login(t, "alice", "pw")

	admin, err := e.tokens.Issue(auth.Principal{UserID: 99, Admin: true})
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/users/1", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"alice","email":"a@x.com","admin":false}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/users/2/reviews", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.AuthFailuresTotal.WithLabelValues("forbidden")))

	rec = e.do(t, http.MethodGet, "/users/1/photos", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"photos":[]}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/users/2", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/users/001", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/users/alice/businesses", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnerCanListEverything(t *testing.T) {
	e := newTestEnv(t, nil)
	e.register(t, "alice", "a@x.com", "pw")
	token := e.login(t, "alice", "pw")

	e.repos.AddReview(models.Review{UserID: 1, BusinessID: 3, Dollars: 2, Stars: 4, Review: "ok"})
	e.repos.AddPhoto(models.Photo{UserID: 1, BusinessID: 3, Caption: "front", ObjectKey: "k.jpg"})

	rec := e.do(t, http.MethodGet, "/users/1/reviews", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reviews":[{"id":1,"userId":1,"businessId":3,"dollars":2,"stars":4,"review":"ok"}]}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/users/1/photos", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"photos":[{"id":1,"userId":1,"businessId":3,"caption":"front"}]}`, rec.Body.String())
}

func TestLogin_Failures(t *testing.T) {
	e := newTestEnv(t, nil)
	e.register(t, "alice", "a@x.com", "pw")

	wrong := e.do(t, http.MethodPost, "/users/login", "", map[string]string{"identifier": "alice", "password": "nope"})
	unknown := e.do(t, http.MethodPost, "/users/login", "", map[string]string{"identifier": "mallory", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	rec := e.do(t, http.MethodPost, "/users/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/users/login", "", map[string]string{"password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/users/login", "", map[string]string{"email": "a@x.com", "password": "pw"})
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2.0, testutil.ToFloat64(e.metrics.AuthFailuresTotal.WithLabelValues("bad_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.LoginsTotal.WithLabelValues("success")))
}

func TestRegister_Variants(t *testing.T) {
	e := newTestEnv(t, nil)
	e.register(t, "alice", "a@x.com", "pw")
	alice := e.login(t, "alice", "pw")
	admin, err := e.tokens.Issue(auth.Principal{UserID: 1, Admin: true})
	require.NoError(t, err)

	adminReq := map[string]any{"name": "root", "email": "r@x.com", "password": "pw", "admin": true}

	rec := e.do(t, http.MethodPost, "/users", "", adminReq)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/users", alice, adminReq)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/users", "garbage", adminReq)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/users", admin, adminReq)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"admin":true`)

	rec = e.do(t, http.MethodPost, "/users", "", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/users", "", map[string]string{"name": "x", "email": "no-at", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password\":")
}

func TestLogin_RateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newTestEnv(t, ratelimit.NewRedisLimiter(client, 2, time.Minute, "login"))
	e.register(t, "alice", "a@x.com", "pw")

	e.login(t, "alice", "pw")
	e.login(t, "alice", "pw")

	rec := e.do(t, http.MethodPost, "/users/login", "", map[string]string{"identifier": "alice", "password": "pw"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	mr.Close()
	rec = e.do(t, http.MethodPost, "/users/login", "", map[string]string{"identifier": "alice", "password": "pw"})
	assert.Equal(t, http.StatusOK, rec.Code, "limiter errors fail open")
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.RateLimitErrorsTotal))
}

func TestLogin_SuccessResetsLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newTestEnv(t, ratelimit.NewRedisLimiter(client, 2, time.Minute, "login"))
	e.register(t, "alice", "a@x.com", "pw")

	rec := e.do(t, http.MethodPost, "/users/login", "", map[string]string{"identifier": "alice", "password": "bad"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	e.login(t, "alice", "pw")
	assert.False(t, mr.Exists("login:192.0.2.1"))

	e.login(t, "alice", "pw")
	e.login(t, "alice", "pw")
}

func TestLogin_ThrottleKeyIgnoresPort(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newTestEnv(t, ratelimit.NewRedisLimiter(client, 2, time.Minute, "login"))

	attempt := func(remote string) int {
		body := strings.NewReader(`{"identifier":"nobody","password":"x"}`)
		req := httptest.NewRequest(http.MethodPost, "/users/login", body)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, attempt("198.51.100.7:40001"))
	assert.Equal(t, http.StatusUnauthorized, attempt("198.51.100.7:40002"))
	assert.Equal(t, http.StatusTooManyRequests, attempt("198.51.100.7:40003"))

	v, err := mr.Get("login:198.51.100.7")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestInfrastructureRoutes(t *testing.T) {
	e := newTestEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	e.do(t, http.MethodGet, "/users/1", "", nil)
	rec = e.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `auth_failures_total{kind="missing_credential"} 1`))

	rec = e.do(t, http.MethodDelete, "/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = e.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestID_Propagates(t *testing.T) {
	e := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "3f0c7f5e-6f3e-4a59-9d0b-1c2d3e4f5a6b")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, "3f0c7f5e-6f3e-4a59-9d0b-1c2d3e4f5a6b", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "<script>")
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get("X-Request-ID"))
}

func TestRecoverer(t *testing.T) {
	e := newTestEnv(t, nil)
	h := e.server.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

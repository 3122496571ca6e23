package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/logging"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestEcho(t *testing.T) (*echo.Echo, *auth.TokenService, *timex.ManualClock) {
	t.Helper()
	clock := timex.NewManualClock(now)
	tokens := auth.NewTokenService(auth.TokenConfig{
		SigningKey: []byte("k"), AccessTokenTTL: time.Minute, Issuer: "reviewhub",
	}, clock)

	e := NewEcho(logging.Nop{})
	g := e.Group("/v1", RequireAuth(NewTokenAuthenticator(tokens)))
	g.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, Principal(c).UserID)
	})
	g.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RequireRole(auth.RoleAdmin))
	return e, tokens, clock
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	e, tokens, clock := newTestEcho(t)

	token, err := tokens.IssueAccessToken(auth.Claims{UserID: "u1", TokenVersion: 1, Roles: []string{auth.RoleUser}})
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/v1/me", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/v1/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/v1/me", "garbage").Code)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/v1/me", token).Code)
}

func TestRequireRole(t *testing.T) {
	e, tokens, _ := newTestEcho(t)

	userToken, err := tokens.IssueAccessToken(auth.Claims{UserID: "u1", Roles: []string{auth.RoleUser}})
	require.NoError(t, err)
	adminToken, err := tokens.IssueAccessToken(auth.Claims{UserID: "a1", Roles: []string{auth.RoleAdmin}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/v1/admin", userToken).Code)
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/v1/admin", adminToken).Code)
}

func TestHealthz(t *testing.T) {
	e, _, _ := newTestEcho(t)
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.New(&buf, "json", "info")))
	e.GET("/x/:id", func(c echo.Context) error { return c.NoContent(http.StatusAccepted) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x/1", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, buf.String(), `"path":"/x/:id"`)
	assert.Contains(t, buf.String(), `"status":202`)
}

func TestRequestLogger_RequestIDReachesHandlerLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "json", "info")
	e := NewEcho(log)
	e.GET("/x", func(c echo.Context) error {
		log.Info(c.Request().Context(), "inside handler")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, 2, strings.Count(buf.String(), `"request_id":"req-42"`))
}

func TestRateLimiter_PassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	l := NewRateLimiter(nil, RateLimitConfig{}, timex.NewManualClock(now), logging.Nop{})
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, l.Middleware())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiter_FailsOpenWhenRedisUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	l := NewRateLimiter(rdb, RateLimitConfig{Capacity: 1}, timex.NewManualClock(now), logging.Nop{})
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, l.Middleware())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil).WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitConfig_Normalized(t *testing.T) {
	c := RateLimitConfig{}.normalized()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, time.Second, c.RefillInterval)
	assert.Equal(t, 5*time.Second, c.TTL)
	assert.Equal(t, "rl", c.Prefix)
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(3), asInt64(int64(3)))
	assert.Equal(t, int64(3), asInt64(3))
	assert.Equal(t, int64(3), asInt64(3.9))
	assert.Equal(t, int64(42), asInt64("42"))
	assert.Equal(t, int64(0), asInt64("x"))
	assert.Equal(t, int64(0), asInt64(nil))
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/theatre-ticketing/internal/config"
)

const clientIP = "203.0.113.9"

var registerBucket = config.RateLimitConfig{
	Enabled:        true,
	Bucket:         "register",
	Capacity:       5,
	RefillTokens:   1,
	RefillInterval: 6 * time.Second,
	TTL:            time.Minute,
	KeyStrategy:    "ip",
	Prefix:         "rl",
}

func newBucket(t *testing.T, cfg config.RateLimitConfig) (*tokenBucket, redismock.ClientMock, time.Time) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	log, _ := test.NewNullLogger()
	now := time.Date(2026, 4, 19, 16, 0, 0, 0, time.UTC)
	return &tokenBucket{cfg: cfg, rdb: rdb, log: log, now: func() time.Time { return now }}, mock, now
}

func expectTake(mock redismock.ClientMock, cfg config.RateLimitConfig, key string, now time.Time) *redismock.ExpectedCmd {
	return mock.ExpectEvalSha(takeToken.Hash(), []string{key},
		now.UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second))
}

func serveRegister(b *tokenBucket) *httptest.ResponseRecorder {
	e := echo.New()
	e.POST("/api/register", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, b.middleware)
	req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
	req.Header.Set(echo.HeaderXRealIP, clientIP)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBucketKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/ping", nil)
	req.Header.Set(echo.HeaderXRealIP, clientIP)
	c := e.NewContext(req, httptest.NewRecorder())

	cfg := config.RateLimitConfig{Prefix: "rl", Bucket: "admin-key", KeyStrategy: "ip"}
	assert.Equal(t, "rl:admin-key:"+clientIP, bucketKey(cfg, c))

	cfg.KeyStrategy = "ip_caller"
	c.Set("role", "scanner")
	assert.Equal(t, "rl:admin-key:"+clientIP+":scanner", bucketKey(cfg, c))
}

func TestTokenBucketAllows(t *testing.T) {
	b, mock, now := newBucket(t, registerBucket)
	expectTake(mock, registerBucket, "rl:register:"+clientIP, now).
		SetVal([]interface{}{int64(1), int64(4), int64(0)})

	rec := serveRegister(b)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, rec.Header().Get("Retry-After"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	b, mock, now := newBucket(t, registerBucket)
	expectTake(mock, registerBucket, "rl:register:"+clientIP, now).
		SetVal([]interface{}{int64(0), int64(0), int64(1500)})

	rec := serveRegister(b)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests. Please try again shortly.","retry_after":2}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenBucketAllowsOnRedisError(t *testing.T) {
	b, mock, now := newBucket(t, registerBucket)
	expectTake(mock, registerBucket, "rl:register:"+clientIP, now).SetErr(errors.New("connection refused"))

	rec := serveRegister(b)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Remaining"))
}

func TestTokenBucketPassThroughWithoutRedis(t *testing.T) {
	log, _ := test.NewNullLogger()
	mw := NewTokenBucket(registerBucket, nil, log)

	e := echo.New()
	e.POST("/api/register", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, mw)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/register", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestRetrySeconds(t *testing.T) {
	assert.Equal(t, 0, retrySeconds(0))
	assert.Equal(t, 1, retrySeconds(time.Millisecond))
	assert.Equal(t, 1, retrySeconds(time.Second))
	assert.Equal(t, 2, retrySeconds(1500*time.Millisecond))
}

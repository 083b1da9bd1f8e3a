package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/config"
)

// takeToken refills the bucket in whole intervals, then spends one token
// if any is left.  It returns {allowed, tokens left, ms until next token}.
//
// KEYS[1] bucket key
// ARGV    now_ms, capacity, refill_tokens, interval_ms, ttl_s
var takeToken = redis.NewScript(`
local now, cap = tonumber(ARGV[1]), tonumber(ARGV[2])
local refill, every, ttl = tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(b[1]) or cap
local ts = tonumber(b[2]) or now

local steps = math.floor(math.max(0, now - ts) / every)
if steps > 0 then
  tokens = math.min(cap, tokens + steps * refill)
  ts = ts + steps * every
end

local ok, wait = 0, 0
if tokens >= 1 then
  ok = 1
  tokens = tokens - 1
else
  wait = every - (now - ts)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// take is the outcome of one token request.
type take struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

// tokenBucket is one named limiter ("register", "admin-key", ...) whose
// state lives in Redis so it is shared by every instance and survives
// restarts.
type tokenBucket struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log logrus.FieldLogger
	now func() time.Time
}

// NewTokenBucket limits requests per client in the bucket named by
// cfg.Bucket.  Each client starts with cfg.Capacity tokens and regains
// cfg.RefillTokens every cfg.RefillInterval.  A Redis failure lets the
// request through.  With the limiter disabled or no client the middleware
// is a pass-through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	b := &tokenBucket{cfg: cfg, rdb: rdb, log: log.WithField("bucket", cfg.Bucket), now: time.Now}
	return b.middleware
}

func (b *tokenBucket) take(ctx context.Context, key string) (take, error) {
	vals, err := takeToken.Run(ctx, b.rdb, []string{key},
		b.now().UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return take{}, err
	}
	if len(vals) != 3 {
		return take{}, fmt.Errorf("unexpected script result %v", vals)
	}
	return take{
		allowed:    vals[0] == 1,
		remaining:  vals[1],
		retryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

func (b *tokenBucket) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := bucketKey(b.cfg, c)
		t, err := b.take(c.Request().Context(), key)
		if err != nil {
			b.log.WithError(err).WithField("key", key).Warn("ratelimit: redis error, allowing request")
			return next(c)
		}

		h := c.Response().Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(b.cfg.Capacity))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(t.remaining, 10))
		if t.allowed {
			return next(c)
		}

		secs := retrySeconds(t.retryAfter)
		h.Set("Retry-After", strconv.Itoa(secs))
		if b.cfg.Debug {
			b.log.WithFields(logrus.Fields{"key": key, "retry_after": t.retryAfter}).Info("ratelimit: blocked")
		}
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":       "Too many requests. Please try again shortly.",
			"retry_after": secs,
		})
	}
}

// retrySeconds rounds up so a client never retries before a token exists.
func retrySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// bucketKey is prefix:bucket:ip, with the caller appended under the
// "ip_caller" strategy so that holders of different admin tiers behind
// one address do not share a bucket.
func bucketKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	parts := []string{cfg.Prefix, cfg.Bucket, ip}
	if strings.EqualFold(cfg.KeyStrategy, "ip_caller") {
		parts = append(parts, callerID(c))
	}
	return strings.Join(parts, ":")
}

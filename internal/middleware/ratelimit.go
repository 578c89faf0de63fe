package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/agfi/registro-backend/internal/config"
	"github.com/agfi/registro-backend/internal/logging"
)

// takeToken refills the bucket at KEYS[1] in whole steps and spends one
// token. ARGV: now (ms), capacity, tokens per step, step (ms), ttl (s).
// Returns {granted, left, wait_ms}.
var takeToken = redis.NewScript(`
local now, cap, per, step, ttl =
	tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local left = tonumber(redis.call('HGET', KEYS[1], 'left'))
local since = tonumber(redis.call('HGET', KEYS[1], 'since'))
if not left or not since then
	left, since = cap, now
end
local steps = math.floor(math.max(now - since, 0) / step)
if steps > 0 then
	left = math.min(cap, left + steps * per)
	since = since + steps * step
end
local granted, wait = 0, 0
if left >= 1 then
	granted, left = 1, left - 1
else
	wait = math.max(step - (now - since), 0)
end
redis.call('HSET', KEYS[1], 'left', left, 'since', since)
redis.call('EXPIRE', KEYS[1], ttl)
return {granted, left, wait}
`)

// bucketReply is what takeToken answered for one request.
type bucketReply struct {
	granted bool
	left    int64
	wait    time.Duration
}

func parseBucketReply(v interface{}) (bucketReply, bool) {
	vals, ok := v.([]interface{})
	if !ok || len(vals) != 3 {
		return bucketReply{}, false
	}
	nums := make([]int64, 3)
	for i, x := range vals {
		n, ok := x.(int64)
		if !ok {
			return bucketReply{}, false
		}
		nums[i] = n
	}
	return bucketReply{granted: nums[0] == 1, left: nums[1], wait: time.Duration(nums[2]) * time.Millisecond}, true
}

// NewTokenBucket throttles requests per client address and route with a
// token bucket kept in Redis. It lets every request through when disabled,
// when rdb is nil, or when Redis fails.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, c)
			raw, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second)).Result()
			if err != nil {
				logging.Warn().Err(err).Str("key", key).Msg("rate limit check failed, letting request through")
				return next(c)
			}
			reply, ok := parseBucketReply(raw)
			if !ok {
				logging.Warn().Str("key", key).Interface("result", raw).Msg("unexpected rate limit reply")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(reply.left, 10))
			if reply.granted {
				return next(c)
			}
			secs := int(math.Ceil(reply.wait.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			logging.Debug().Str("key", key).Dur("wait", reply.wait).Msg("login throttled")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"ok":          false,
				"message":     "Demasiados intentos, espera un momento.",
				"retry_after": secs,
			})
		}
	}
}

func rateKey(prefix string, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return prefix + ":" + ip + ":" + c.Request().Method + " " + c.Path()
}

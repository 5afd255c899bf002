package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guttosm/sireview/internal/domain/dto"
	"github.com/guttosm/sireview/internal/logger"
)

// RequestLogger is a Gin middleware that logs method, path, status code,
// request latency, request ID and any errors attached to the context.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
//
// Example log output:
//
//	{"level":"info","component":"http","request_id":"…","method":"GET","path":"/api/v1/reviews/latest","status":200,"latency_ms":3}
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		rid, _ := c.Get(RequestIDKey)

		log := logger.With("http")
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		} else if status >= http.StatusBadRequest {
			ev = log.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("request_id", toString(rid)).
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Int64("latency_ms", latency.Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// visitor is the token bucket of one client IP.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// In-memory per-IP buckets; single instance only.
var (
	visitors    = make(map[string]*visitor)
	visitorsMu  sync.Mutex
	limitRPS    = rate.Limit(10)
	limitBurst  = 20
	idleTTL     = 3 * time.Minute
	lastSweepAt time.Time
)

// SetRateLimit replaces the per-IP token bucket settings and forgets known clients.
// Non-positive values keep the current setting.
func SetRateLimit(rps float64, burst int) {
	visitorsMu.Lock()
	defer visitorsMu.Unlock()
	if rps > 0 {
		limitRPS = rate.Limit(rps)
	}
	if burst > 0 {
		limitBurst = burst
	}
	visitors = make(map[string]*visitor)
}

// RateLimiter is a Gin middleware applying a token bucket per client IP.
//
// Behavior:
//   - Each IP gets a bucket of limitBurst tokens refilled at limitRPS per second.
//   - Buckets idle for longer than idleTTL are evicted.
//   - When the bucket is empty: HTTP 429 with a Retry-After header and a dto.ErrorResponse body.
func RateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		visitorsMu.Lock()
		if now.Sub(lastSweepAt) > idleTTL {
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > idleTTL {
					delete(visitors, k)
				}
			}
			lastSweepAt = now
		}
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(limitRPS, limitBurst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		retry := retryAfter(limitRPS)
		visitorsMu.Unlock()

		if !v.limiter.Allow() {
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate limit exceeded", nil))
			return
		}

		c.Next()
	}
}

// retryAfter is the whole number of seconds until one token is back.
func retryAfter(r rate.Limit) int {
	if r <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(r)))
}

package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimit admits each request through limiter, keyed by the client IP as
// resolved by the echo IP extractor. Rejections return domain.ErrRateLimited
// with a Retry-After header; a store outage under fail-closed returns the
// limiter's error.
func RateLimit(limiter ports.RateLimiter, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := limiter.Admit(c.Request().Context(), c.RealIP(), now())
			if err != nil {
				return err
			}

			h := c.Response().Header()
			reset := ceilSeconds(d.RetryAfter)
			h.Set(HeaderRateLimitLimit, strconv.FormatInt(d.Limit, 10))
			h.Set(HeaderRateLimitRemaining, strconv.FormatInt(d.Remaining, 10))
			h.Set(HeaderRateLimitReset, reset)

			if !d.Allowed {
				h.Set(echo.HeaderRetryAfter, reset)
				return domain.ErrRateLimited
			}
			return next(c)
		}
	}
}

// ceilSeconds renders d as whole seconds, rounding up and never below 1.
func ceilSeconds(d time.Duration) string {
	s := int64(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return strconv.FormatInt(s, 10)
}

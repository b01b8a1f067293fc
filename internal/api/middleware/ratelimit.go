package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/booking-platform/pkg/response"
)

// RateLimit 全局令牌桶限流，rps<=0 时关闭
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			response.Unavailable(c, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

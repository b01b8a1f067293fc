package middleware

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/booking-platform/pkg/logger"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

// Recovery panic 恢复：上报 Sentry（若启用）并返回 500 envelope
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic recovered: %v", r)
				logger.Error("request panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r))
				if hub := sentry.CurrentHub(); hub.Client() != nil {
					hub.Recover(r)
				}
				response.InternalError(c, err)
				c.Abort()
			}
		}()
		c.Next()
	}
}

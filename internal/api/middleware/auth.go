package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/service"
	"github.com/d60-Lab/booking-platform/pkg/jwtauth"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

const actorKey = "actor"

// Auth 解析 Bearer token 并注入当前操作者
func Auth(tokens *jwtauth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := tokens.Parse(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		c.Set(actorKey, service.Actor{ID: claims.UserID, Role: model.UserRole(claims.Role)})
		c.Next()
	}
}

// RequireAdmin 仅管理员可访问
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentActor(c).IsAdmin() {
			response.Forbidden(c, "admin only")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor 取出当前操作者；未认证路由返回零值
func CurrentActor(c *gin.Context) service.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(service.Actor); ok {
			return actor
		}
	}
	return service.Actor{}
}

package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/booking-platform/config"
	"github.com/d60-Lab/booking-platform/internal/api/handler"
	"github.com/d60-Lab/booking-platform/internal/api/middleware"
	"github.com/d60-Lab/booking-platform/internal/gateway"
	"github.com/d60-Lab/booking-platform/pkg/jwtauth"
)

// New 装配全部路由与中间件
func New(cfg *config.Config, h *handler.Handler, gw *gateway.Gateway, tokens *jwtauth.Manager) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware(cfg.Telemetry.Service))
	r.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// WebSocket 网关自行鉴权（支持 ?token= 回落），不走 Auth 中间件
	r.GET("/ws/notifications", gw.HandleWS)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Login)

		authed := v1.Group("", middleware.Auth(tokens))
		{
			authed.POST("/appointments", h.CreateAppointment)
			authed.GET("/appointments", h.ListAppointments)
			authed.GET("/appointments/:id", h.GetAppointment)
			authed.POST("/appointments/:id/cancel", h.CancelAppointment)

			authed.GET("/slots", h.ListSlots)

			authed.GET("/notifications", h.ListNotifications)
			authed.POST("/notifications/:id/read", h.MarkNotificationRead)
			authed.POST("/notifications/read-all", h.MarkAllNotificationsRead)

			authed.GET("/activities", h.ListActivities)
		}

		admin := authed.Group("", middleware.RequireAdmin())
		{
			admin.POST("/users", h.CreateUser)
			admin.POST("/appointments/:id/complete", h.CompleteAppointment)
			admin.POST("/slots/generate", h.GenerateSlots)
			admin.POST("/slots/:id/disable", h.DisableSlot)
			admin.POST("/events/system", h.EmitSystemEvent)
			admin.POST("/events/admin", h.EmitAdminEvent)
			admin.GET("/ops/queues/:topic/dead", h.ListDeadLetters)
		}
	}

	return r
}

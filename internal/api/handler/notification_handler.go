package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/booking-platform/internal/api/middleware"
	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

// ListNotifications 分页查询通知（管理员全量，客户仅本人）
// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param isRead query bool false "按读标记过滤"
// @Param event query string false "事件类型"
// @Success 200 {object} response.Response
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	offset, limit := pageParams(c)
	filter := repository.NotificationFilter{
		Event:  model.EventKind(c.Query("event")),
		Offset: offset,
		Limit:  limit,
	}
	if raw, ok := c.GetQuery("isRead"); ok {
		isRead := raw == "true"
		filter.IsRead = &isRead
	}
	items, total, err := h.notifService.List(c.Request.Context(), filter, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Notifications retrieved successfully", gin.H{"data": items, "total": total})
}

// MarkNotificationRead 置读标记，管理员与客户标记互不影响
// @Summary 标记通知已读
// @Tags 通知
// @Produce json
// @Param id path string true "通知ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	n, err := h.notifService.MarkRead(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Notification marked as read", n)
}

// MarkAllNotificationsRead 批量置读
// @Summary 全部标记已读
// @Tags 通知
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/read-all [post]
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := h.notifService.MarkAllRead(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Notifications marked as read", gin.H{"updatedCount": updated})
}

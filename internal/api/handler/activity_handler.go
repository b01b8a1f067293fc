package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/booking-platform/internal/api/middleware"
	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

// ListActivities 分页查询活动流水（管理员全量，客户仅本人）
// @Summary 活动流水
// @Tags 流水
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param event query string false "事件类型"
// @Param entityId query string false "实体ID"
// @Success 200 {object} response.Response
// @Router /api/v1/activities [get]
func (h *Handler) ListActivities(c *gin.Context) {
	offset, limit := pageParams(c)
	filter := repository.ActivityFilter{
		Event:    model.EventKind(c.Query("event")),
		EntityID: c.Query("entityId"),
		Offset:   offset,
		Limit:    limit,
	}
	items, total, err := h.activityService.List(c.Request.Context(), filter, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Activities retrieved successfully", gin.H{"data": items, "total": total})
}

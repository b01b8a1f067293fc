package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/booking-platform/internal/api/middleware"
	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/service"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

type systemEventRequest struct {
	Event     string        `json:"event" binding:"required"`
	EntityID  string        `json:"entityId" binding:"required"`
	UserID    string        `json:"userId"`
	Metadata  model.JSONMap `json:"metadata"`
	Broadcast bool          `json:"broadcast"`
}

// EmitSystemEvent 投递系统事件（仅管理员；入队成功即返回）
// @Summary 发系统事件
// @Tags 事件
// @Accept json
// @Produce json
// @Param request body systemEventRequest true "事件内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/events/system [post]
func (h *Handler) EmitSystemEvent(c *gin.Context) {
	var req systemEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	actor := middleware.CurrentActor(c)
	err := h.eventBus.EmitSystem(c.Request.Context(), service.SystemEventPayload{
		Event:     model.EventKind(req.Event),
		EntityID:  req.EntityID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		UserID:    req.UserID,
		Metadata:  req.Metadata,
		Broadcast: req.Broadcast,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Event emitted successfully", nil)
}

type adminEventRequest struct {
	Title     string        `json:"title" binding:"required"`
	Message   string        `json:"message" binding:"required"`
	UserIDs   []string      `json:"userIds"`
	Broadcast bool          `json:"broadcast"`
	Metadata  model.JSONMap `json:"metadata"`
}

// EmitAdminEvent 管理员定向/广播通知（入队成功即返回）
// @Summary 发管理员通知
// @Tags 事件
// @Accept json
// @Produce json
// @Param request body adminEventRequest true "通知内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/events/admin [post]
func (h *Handler) EmitAdminEvent(c *gin.Context) {
	var req adminEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	err := h.eventBus.EmitAdmin(c.Request.Context(), service.AdminEventPayload{
		ActorID:   middleware.CurrentActor(c).ID,
		Title:     req.Title,
		Message:   req.Message,
		UserIDs:   req.UserIDs,
		Broadcast: req.Broadcast,
		Metadata:  req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Notifications queued successfully", nil)
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/booking-platform/internal/api/middleware"
	"github.com/d60-Lab/booking-platform/internal/service"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

type generateSlotsRequest struct {
	ServiceName string `json:"serviceName" binding:"required"`
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"startTime" binding:"required"`
	EndTime     string `json:"endTime" binding:"required"`
	DurationMin int    `json:"durationMin" binding:"required,gt=0"`
}

// GenerateSlots 按窗口批量生成时段（仅管理员）
// @Summary 生成时段
// @Tags 排期
// @Accept json
// @Produce json
// @Param request body generateSlotsRequest true "生成参数"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/slots/generate [post]
func (h *Handler) GenerateSlots(c *gin.Context) {
	var req generateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	count, err := h.scheduleService.GenerateSlots(c.Request.Context(), service.GenerateSlotsInput{
		ServiceName: req.ServiceName,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		DurationMin: req.DurationMin,
		CreatedByID: middleware.CurrentActor(c).ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, "Slots generated successfully", gin.H{"createdCount": count})
}

// ListSlots 查询某服务某天的时段
// @Summary 时段列表
// @Tags 排期
// @Produce json
// @Param serviceName query string true "服务名"
// @Param date query string true "日期 YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /api/v1/slots [get]
func (h *Handler) ListSlots(c *gin.Context) {
	slots, err := h.scheduleService.ListSlots(c.Request.Context(), c.Query("serviceName"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Slots retrieved successfully", slots)
}

// DisableSlot 停用时段（仅管理员，已预约的不可停用）
// @Summary 停用时段
// @Tags 排期
// @Produce json
// @Param id path string true "时段ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/slots/{id}/disable [post]
func (h *Handler) DisableSlot(c *gin.Context) {
	if err := h.scheduleService.DisableSlot(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Slot disabled successfully", nil)
}

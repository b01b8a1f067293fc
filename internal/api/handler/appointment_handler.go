package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/booking-platform/internal/api/middleware"
	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/internal/service"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

type createAppointmentRequest struct {
	SlotID      string `json:"slotId" binding:"required"`
	ServiceName string `json:"serviceName" binding:"required"`
	MeetingType string `json:"meetingType" binding:"required"`
	Note        string `json:"note"`
}

// CreateAppointment 预约时段（并发抢占，输掉竞争返回 409）
// @Summary 创建预约
// @Tags 预约
// @Accept json
// @Produce json
// @Param request body createAppointmentRequest true "预约信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/appointments [post]
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	actor := middleware.CurrentActor(c)
	appt, err := h.bookingService.Create(c.Request.Context(), service.CreateAppointmentInput{
		SlotID:      req.SlotID,
		ServiceName: req.ServiceName,
		UserID:      actor.ID,
		MeetingType: model.MeetingType(req.MeetingType),
		Note:        req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, "Appointment created successfully", appt)
}

// CancelAppointment 取消预约并释放时段
// @Summary 取消预约
// @Tags 预约
// @Produce json
// @Param id path string true "预约ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/appointments/{id}/cancel [post]
func (h *Handler) CancelAppointment(c *gin.Context) {
	appt, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Appointment cancelled successfully", appt)
}

// CompleteAppointment 完成预约（仅管理员）
// @Summary 完成预约
// @Tags 预约
// @Produce json
// @Param id path string true "预约ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/appointments/{id}/complete [post]
func (h *Handler) CompleteAppointment(c *gin.Context) {
	appt, err := h.bookingService.Complete(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Appointment completed successfully", appt)
}

// GetAppointment 查询单条预约
// @Summary 预约详情
// @Tags 预约
// @Produce json
// @Param id path string true "预约ID"
// @Success 200 {object} response.Response
// @Router /api/v1/appointments/{id} [get]
func (h *Handler) GetAppointment(c *gin.Context) {
	appt, err := h.bookingService.Get(c.Request.Context(), c.Param("id"), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Appointment retrieved successfully", appt)
}

// ListAppointments 分页查询预约
// @Summary 预约列表
// @Tags 预约
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param status query string false "预约状态"
// @Success 200 {object} response.Response
// @Router /api/v1/appointments [get]
func (h *Handler) ListAppointments(c *gin.Context) {
	offset, limit := pageParams(c)
	filter := repository.AppointmentFilter{
		Status:      model.AppointmentStatus(c.Query("status")),
		MeetingType: model.MeetingType(c.Query("meetingType")),
		Offset:      offset,
		Limit:       limit,
	}
	items, total, err := h.bookingService.List(c.Request.Context(), filter, middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Appointments retrieved successfully", gin.H{"data": items, "total": total})
}

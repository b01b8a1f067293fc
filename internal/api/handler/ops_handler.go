package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/booking-platform/pkg/response"
)

// ListDeadLetters 读取某 topic 的死信任务（仅管理员）
// @Summary 死信任务
// @Tags 运维
// @Produce json
// @Param topic path string true "队列 topic"
// @Success 200 {object} response.Response
// @Router /api/v1/ops/queues/{topic}/dead [get]
func (h *Handler) ListDeadLetters(c *gin.Context) {
	jobs, err := h.jobQueue.DeadLetters(c.Request.Context(), c.Param("topic"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Dead letters retrieved successfully", jobs)
}

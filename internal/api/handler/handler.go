package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/booking-platform/internal/queue"
	"github.com/d60-Lab/booking-platform/internal/service"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

// Handler 聚合全部 API 依赖
type Handler struct {
	authService     *service.AuthService
	bookingService  *service.BookingService
	scheduleService *service.ScheduleService
	eventBus        *service.EventBus
	notifService    *service.NotificationService
	activityService *service.ActivityService
	jobQueue        *queue.Queue
}

func New(
	authService *service.AuthService,
	bookingService *service.BookingService,
	scheduleService *service.ScheduleService,
	eventBus *service.EventBus,
	notifService *service.NotificationService,
	activityService *service.ActivityService,
	jobQueue *queue.Queue,
) *Handler {
	return &Handler{
		authService:     authService,
		bookingService:  bookingService,
		scheduleService: scheduleService,
		eventBus:        eventBus,
		notifService:    notifService,
		activityService: activityService,
		jobQueue:        jobQueue,
	}
}

// respondError 按错误分类映射 HTTP 状态码
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUnavailable):
		response.Unavailable(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// pageParams 解析分页参数
func pageParams(c *gin.Context) (offset, limit int) {
	page := queryInt(c, "page", 1)
	size := queryInt(c, "limit", 10)
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	return (page - 1) * size, size
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

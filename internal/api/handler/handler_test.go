package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/api/middleware"
	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/queue"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/internal/service"
	"github.com/d60-Lab/booking-platform/pkg/jwtauth"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

type apiEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *jwtauth.Manager
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.ScheduleSlot{},
		&model.Appointment{},
		&model.Activity{},
		&model.Notification{},
	))

	tokens := jwtauth.NewManager("test-secret", time.Hour)
	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	actRepo := repository.NewActivityRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	jobQueue := queue.New(rdb, queue.Options{})
	bus := service.NewEventBus(jobQueue, userRepo)

	h := New(
		service.NewAuthService(userRepo, tokens),
		service.NewBookingService(db, userRepo, slotRepo, apptRepo, bus),
		service.NewScheduleService(slotRepo, nil),
		bus,
		service.NewNotificationService(notifRepo),
		service.NewActivityService(actRepo),
		jobQueue,
	)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", h.Login)
	authed := v1.Group("", middleware.Auth(tokens))
	authed.POST("/appointments", h.CreateAppointment)
	authed.POST("/appointments/:id/cancel", h.CancelAppointment)
	authed.GET("/appointments", h.ListAppointments)
	authed.GET("/notifications", h.ListNotifications)
	admin := authed.Group("", middleware.RequireAdmin())
	admin.POST("/slots/generate", h.GenerateSlots)

	return &apiEnv{db: db, router: r, tokens: tokens}
}

func (env *apiEnv) seedUser(t *testing.T, role model.UserRole) (*model.User, string) {
	t.Helper()
	id := uuid.New().String()
	user := &model.User{
		ID:       id,
		Username: "u" + id[:8],
		Email:    id[:8] + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, env.db.Create(user).Error)
	token, err := env.tokens.Issue(user.ID, string(user.Role))
	require.NoError(t, err)
	return user, token
}

func (env *apiEnv) seedSlot(t *testing.T) *model.ScheduleSlot {
	t.Helper()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	slot := &model.ScheduleSlot{
		ID:          uuid.New().String(),
		ServiceName: "consultation",
		Date:        day,
		StartTime:   day.Add(9 * time.Hour),
		EndTime:     day.Add(9*time.Hour + 30*time.Minute),
		DurationMin: 30,
		Status:      model.SlotAvailable,
	}
	require.NoError(t, env.db.Create(slot).Error)
	return slot
}

func (env *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.seedUser(t, model.RoleCustomer)
	slot := env.seedSlot(t)

	body := gin.H{"slotId": slot.ID, "serviceName": "consultation", "meetingType": "Virtual"}
	rec := env.do(t, http.MethodPost, "/api/v1/appointments", token, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	// 时段已被占用，第二次预约撞 409
	_, token2 := env.seedUser(t, model.RoleCustomer)
	rec = env.do(t, http.MethodPost, "/api/v1/appointments", token2, body)
	require.Equal(t, http.StatusConflict, rec.Code)
	resp = decodeResponse(t, rec)
	require.False(t, resp.Success)
}

func TestCreateAppointmentRequiresAuth(t *testing.T) {
	env := newAPIEnv(t)
	slot := env.seedSlot(t)

	body := gin.H{"slotId": slot.ID, "serviceName": "consultation", "meetingType": "Virtual"}
	rec := env.do(t, http.MethodPost, "/api/v1/appointments", "", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/appointments", "garbage-token", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAppointmentBindValidation(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.seedUser(t, model.RoleCustomer)

	// 缺 slotId
	rec := env.do(t, http.MethodPost, "/api/v1/appointments", token, gin.H{"serviceName": "consultation", "meetingType": "Virtual"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminOnlyRouteForbiddenForCustomer(t *testing.T) {
	env := newAPIEnv(t)
	_, customerToken := env.seedUser(t, model.RoleCustomer)
	_, adminToken := env.seedUser(t, model.RoleAdmin)

	body := gin.H{"serviceName": "consultation", "date": "2026-03-02", "startTime": "09:00", "endTime": "10:00", "durationMin": 30}
	rec := env.do(t, http.MethodPost, "/api/v1/slots/generate", customerToken, body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/slots/generate", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCancelAppointmentEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	user, token := env.seedUser(t, model.RoleCustomer)
	slot := env.seedSlot(t)

	body := gin.H{"slotId": slot.ID, "serviceName": "consultation", "meetingType": "Virtual"}
	rec := env.do(t, http.MethodPost, "/api/v1/appointments", token, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var appt model.Appointment
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&appt).Error)

	rec = env.do(t, http.MethodPost, "/api/v1/appointments/"+appt.ID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// 取消后的重复取消是非法状态
	rec = env.do(t, http.MethodPost, "/api/v1/appointments/"+appt.ID+"/cancel", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAppointmentsScopedToCaller(t *testing.T) {
	env := newAPIEnv(t)
	_, tokenA := env.seedUser(t, model.RoleCustomer)
	_, tokenB := env.seedUser(t, model.RoleCustomer)
	slot := env.seedSlot(t)

	body := gin.H{"slotId": slot.ID, "serviceName": "consultation", "meetingType": "Virtual"}
	rec := env.do(t, http.MethodPost, "/api/v1/appointments", tokenA, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/appointments", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	require.EqualValues(t, 0, data["total"])
}

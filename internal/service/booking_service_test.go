package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
)

// captureEnqueuer 记录入队任务，替代真实队列
type captureEnqueuer struct {
	mu   sync.Mutex
	jobs []capturedJob
	fail bool
}

type capturedJob struct {
	Topic   string
	Kind    string
	Payload []byte
}

func (e *captureEnqueuer) Enqueue(_ context.Context, topic, kind string, payload interface{}) error {
	if e.fail {
		return errors.New("redis down")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.jobs = append(e.jobs, capturedJob{Topic: topic, Kind: kind, Payload: raw})
	e.mu.Unlock()
	return nil
}

func (e *captureEnqueuer) kinds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.jobs))
	for _, j := range e.jobs {
		out = append(out, j.Kind)
	}
	return out
}

type bookingEnv struct {
	db       *gorm.DB
	enqueuer *captureEnqueuer
	userRepo repository.UserRepository
	slotRepo repository.SlotRepository
	svc      *BookingService
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	return db
}

func newBookingEnv(t *testing.T) *bookingEnv {
	t.Helper()
	db := setupServiceDB(t)
	enqueuer := &captureEnqueuer{}
	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	bus := NewEventBus(enqueuer, userRepo)
	return &bookingEnv{
		db:       db,
		enqueuer: enqueuer,
		userRepo: userRepo,
		slotRepo: slotRepo,
		svc:      NewBookingService(db, userRepo, slotRepo, apptRepo, bus),
	}
}

func (env *bookingEnv) seedUser(t *testing.T, role model.UserRole, blocked bool) *model.User {
	t.Helper()
	id := uuid.New().String()
	user := &model.User{
		ID:        id,
		Username:  "u" + id[:8],
		Email:     id[:8] + "@example.com",
		Password:  "hashed",
		Role:      role,
		IsBlocked: blocked,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *bookingEnv) seedSlot(t *testing.T, status model.SlotStatus) *model.ScheduleSlot {
	t.Helper()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	slot := &model.ScheduleSlot{
		ID:          uuid.New().String(),
		ServiceName: "consultation",
		Date:        day,
		StartTime:   day.Add(10 * time.Hour),
		EndTime:     day.Add(10*time.Hour + 30*time.Minute),
		DurationMin: 30,
		Status:      status,
	}
	require.NoError(t, env.db.Create(slot).Error)
	return slot
}

func TestCreateAppointmentHappyPath(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, model.RoleCustomer, false)
	slot := env.seedSlot(t, model.SlotAvailable)

	appt, err := env.svc.Create(ctx, CreateAppointmentInput{
		SlotID:      slot.ID,
		ServiceName: "consultation",
		UserID:      user.ID,
		MeetingType: model.MeetingVirtual,
	})
	require.NoError(t, err)
	require.Equal(t, model.AppointmentUpcoming, appt.Status)
	require.Equal(t, slot.StartTime.Unix(), appt.ScheduledAt.Unix())
	require.Regexp(t, `^APPT-\d+-[0-9A-F]{8}$`, appt.AppointmentNo)

	got, err := env.slotRepo.GetByID(ctx, nil, slot.ID)
	require.NoError(t, err)
	require.Equal(t, model.SlotBooked, got.Status)
	require.NotNil(t, got.AppointmentID)
	require.Equal(t, appt.ID, *got.AppointmentID)

	// 预约成立后发了一条系统事件
	require.Equal(t, []string{"system.event"}, env.enqueuer.kinds())
}

func TestCreateAppointmentConcurrentSingleWinner(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	slot := env.seedSlot(t, model.SlotAvailable)

	const concurrency = 20
	users := make([]*model.User, concurrency)
	for i := range users {
		users[i] = env.seedUser(t, model.RoleCustomer, false)
	}

	var won, lost int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := env.svc.Create(ctx, CreateAppointmentInput{
				SlotID:      slot.ID,
				ServiceName: "consultation",
				UserID:      users[i].ID,
				MeetingType: model.MeetingVirtual,
			})
			switch {
			case err == nil:
				atomic.AddInt64(&won, 1)
			case errors.Is(err, ErrSlotConflict):
				atomic.AddInt64(&lost, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 1, won)
	require.EqualValues(t, concurrency-1, lost)

	var count int64
	require.NoError(t, env.db.Model(&model.Appointment{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateAppointmentValidation(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, model.RoleCustomer, false)
	slot := env.seedSlot(t, model.SlotAvailable)

	cases := []struct {
		name  string
		input CreateAppointmentInput
		want  error
	}{
		{
			name:  "missing slot",
			input: CreateAppointmentInput{ServiceName: "consultation", UserID: user.ID, MeetingType: model.MeetingVirtual},
			want:  ErrValidation,
		},
		{
			name:  "bad meeting type",
			input: CreateAppointmentInput{SlotID: slot.ID, ServiceName: "consultation", UserID: user.ID, MeetingType: "Carrier-Pigeon"},
			want:  ErrValidation,
		},
		{
			name:  "in-person requires note",
			input: CreateAppointmentInput{SlotID: slot.ID, ServiceName: "consultation", UserID: user.ID, MeetingType: model.MeetingInPerson, Note: "   "},
			want:  ErrValidation,
		},
		{
			name:  "service name mismatch",
			input: CreateAppointmentInput{SlotID: slot.ID, ServiceName: "tax-review", UserID: user.ID, MeetingType: model.MeetingVirtual},
			want:  ErrValidation,
		},
		{
			name:  "unknown user",
			input: CreateAppointmentInput{SlotID: slot.ID, ServiceName: "consultation", UserID: uuid.New().String(), MeetingType: model.MeetingVirtual},
			want:  ErrNotFound,
		},
		{
			name:  "unknown slot",
			input: CreateAppointmentInput{SlotID: uuid.New().String(), ServiceName: "consultation", UserID: user.ID, MeetingType: model.MeetingVirtual},
			want:  ErrNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Create(ctx, tc.input)
			require.ErrorIs(t, err, tc.want)
		})
	}

	// 失败路径不应占用时段
	got, err := env.slotRepo.GetByID(ctx, nil, slot.ID)
	require.NoError(t, err)
	require.Equal(t, model.SlotAvailable, got.Status)
}

func TestCreateAppointmentBlockedUser(t *testing.T) {
	env := newBookingEnv(t)
	user := env.seedUser(t, model.RoleCustomer, true)
	slot := env.seedSlot(t, model.SlotAvailable)

	_, err := env.svc.Create(context.Background(), CreateAppointmentInput{
		SlotID:      slot.ID,
		ServiceName: "consultation",
		UserID:      user.ID,
		MeetingType: model.MeetingVirtual,
	})
	require.ErrorIs(t, err, ErrUserBlocked)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCreateAppointmentDisabledSlot(t *testing.T) {
	env := newBookingEnv(t)
	user := env.seedUser(t, model.RoleCustomer, false)
	slot := env.seedSlot(t, model.SlotDisabled)

	_, err := env.svc.Create(context.Background(), CreateAppointmentInput{
		SlotID:      slot.ID,
		ServiceName: "consultation",
		UserID:      user.ID,
		MeetingType: model.MeetingVirtual,
	})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelReleasesSlotForRebooking(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, model.RoleCustomer, false)
	other := env.seedUser(t, model.RoleCustomer, false)
	slot := env.seedSlot(t, model.SlotAvailable)

	appt, err := env.svc.Create(ctx, CreateAppointmentInput{
		SlotID:      slot.ID,
		ServiceName: "consultation",
		UserID:      owner.ID,
		MeetingType: model.MeetingVirtual,
	})
	require.NoError(t, err)

	// 非本人取消被拒
	_, err = env.svc.Cancel(ctx, appt.ID, Actor{ID: other.ID, Role: model.RoleCustomer})
	require.ErrorIs(t, err, ErrForbidden)

	cancelled, err := env.svc.Cancel(ctx, appt.ID, Actor{ID: owner.ID, Role: model.RoleCustomer})
	require.NoError(t, err)
	require.Equal(t, model.AppointmentCancelled, cancelled.Status)

	// 重复取消失败
	_, err = env.svc.Cancel(ctx, appt.ID, Actor{ID: owner.ID, Role: model.RoleCustomer})
	require.ErrorIs(t, err, ErrInvalidState)

	// 时段已释放，可以被另一个用户预约
	rebooked, err := env.svc.Create(ctx, CreateAppointmentInput{
		SlotID:      slot.ID,
		ServiceName: "consultation",
		UserID:      other.ID,
		MeetingType: model.MeetingPhone,
	})
	require.NoError(t, err)
	require.NotEqual(t, appt.ID, rebooked.ID)
}

func TestCompleteOnlyAdminAndUpcoming(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, model.RoleCustomer, false)
	admin := env.seedUser(t, model.RoleAdmin, false)
	slot := env.seedSlot(t, model.SlotAvailable)

	appt, err := env.svc.Create(ctx, CreateAppointmentInput{
		SlotID:      slot.ID,
		ServiceName: "consultation",
		UserID:      owner.ID,
		MeetingType: model.MeetingVirtual,
	})
	require.NoError(t, err)

	_, err = env.svc.Complete(ctx, appt.ID, Actor{ID: owner.ID, Role: model.RoleCustomer})
	require.ErrorIs(t, err, ErrForbidden)

	completed, err := env.svc.Complete(ctx, appt.ID, Actor{ID: admin.ID, Role: model.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, model.AppointmentCompleted, completed.Status)

	// Completed 是终态：再完成或取消都被拒
	_, err = env.svc.Complete(ctx, appt.ID, Actor{ID: admin.ID, Role: model.RoleAdmin})
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = env.svc.Cancel(ctx, appt.ID, Actor{ID: admin.ID, Role: model.RoleAdmin})
	require.ErrorIs(t, err, ErrInvalidState)
}

// failingApptRepo 预约插入必败，其余委托真实仓储
type failingApptRepo struct {
	repository.AppointmentRepository
}

func (failingApptRepo) Create(context.Context, *gorm.DB, *model.Appointment) error {
	return errors.New("insert failed")
}

func TestCreateRollsBackClaimWhenInsertFails(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	user := env.seedUser(t, model.RoleCustomer, false)
	slot := env.seedSlot(t, model.SlotAvailable)

	broken := NewBookingService(env.db, env.userRepo, env.slotRepo,
		failingApptRepo{repository.NewAppointmentRepository(env.db)},
		NewEventBus(env.enqueuer, env.userRepo))

	input := CreateAppointmentInput{
		SlotID:      slot.ID,
		ServiceName: "consultation",
		UserID:      user.ID,
		MeetingType: model.MeetingVirtual,
	}
	_, err := broken.Create(ctx, input)
	require.Error(t, err)

	// 抢占之后插入失败：整个事务回滚，时段回到可约、不挂预约 id
	got, err := env.slotRepo.GetByID(ctx, nil, slot.ID)
	require.NoError(t, err)
	require.Equal(t, model.SlotAvailable, got.Status)
	require.Nil(t, got.AppointmentID)

	var count int64
	require.NoError(t, env.db.Model(&model.Appointment{}).Count(&count).Error)
	require.Zero(t, count)
	require.Empty(t, env.enqueuer.kinds())

	// 回滚后的时段可以正常约走
	appt, err := env.svc.Create(ctx, input)
	require.NoError(t, err)
	require.Equal(t, model.AppointmentUpcoming, appt.Status)
}

func TestBookingSurvivesEventBusOutage(t *testing.T) {
	env := newBookingEnv(t)
	env.enqueuer.fail = true
	user := env.seedUser(t, model.RoleCustomer, false)
	slot := env.seedSlot(t, model.SlotAvailable)

	// 事件入队失败不回滚已成立的预约
	appt, err := env.svc.Create(context.Background(), CreateAppointmentInput{
		SlotID:      slot.ID,
		ServiceName: "consultation",
		UserID:      user.ID,
		MeetingType: model.MeetingVirtual,
	})
	require.NoError(t, err)
	require.NotEmpty(t, appt.ID)
}

func TestGetAndListScopedToOwner(t *testing.T) {
	env := newBookingEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, model.RoleCustomer, false)
	other := env.seedUser(t, model.RoleCustomer, false)
	admin := env.seedUser(t, model.RoleAdmin, false)
	slot := env.seedSlot(t, model.SlotAvailable)

	appt, err := env.svc.Create(ctx, CreateAppointmentInput{
		SlotID:      slot.ID,
		ServiceName: "consultation",
		UserID:      owner.ID,
		MeetingType: model.MeetingVirtual,
	})
	require.NoError(t, err)

	_, err = env.svc.Get(ctx, appt.ID, Actor{ID: other.ID, Role: model.RoleCustomer})
	require.ErrorIs(t, err, ErrForbidden)

	got, err := env.svc.Get(ctx, appt.ID, Actor{ID: admin.ID, Role: model.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, appt.ID, got.ID)

	items, total, err := env.svc.List(ctx, repository.AppointmentFilter{}, Actor{ID: other.ID, Role: model.RoleCustomer})
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
	require.Empty(t, items)

	_, total, err = env.svc.List(ctx, repository.AppointmentFilter{}, Actor{ID: admin.ID, Role: model.RoleAdmin})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

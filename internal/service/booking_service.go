package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/pkg/logger"
)

// Actor 当前操作者
type Actor struct {
	ID   string
	Role model.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// CreateAppointmentInput 预约创建入参
type CreateAppointmentInput struct {
	SlotID      string
	ServiceName string
	UserID      string
	MeetingType model.MeetingType
	Note        string
}

// BookingService 预约协调器：时段抢占 + 预约创建在同一事务内完成
type BookingService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	slotRepo repository.SlotRepository
	apptRepo repository.AppointmentRepository
	bus      *EventBus
}

func NewBookingService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	slotRepo repository.SlotRepository,
	apptRepo repository.AppointmentRepository,
	bus *EventBus,
) *BookingService {
	return &BookingService{
		db:       db,
		userRepo: userRepo,
		slotRepo: slotRepo,
		apptRepo: apptRepo,
		bus:      bus,
	}
}

// Create 预约一个时段。
// 事务内：校验用户与时段 → 条件更新抢占 → 创建预约 → 回写 appointment_id；
// 任何一步失败整个事务回滚，时段自动回到 Available。
// 事务提交后发系统事件；发送失败只记日志，绝不回滚已成立的预约。
func (s *BookingService) Create(ctx context.Context, input CreateAppointmentInput) (*model.Appointment, error) {
	if input.SlotID == "" || input.UserID == "" || input.ServiceName == "" {
		return nil, fmt.Errorf("%w: slotId, serviceName and userId are required", ErrValidation)
	}
	if !model.ValidMeetingType(input.MeetingType) {
		return nil, fmt.Errorf("%w: meetingType %q is not valid", ErrValidation, input.MeetingType)
	}
	if input.MeetingType == model.MeetingInPerson && strings.TrimSpace(input.Note) == "" {
		return nil, fmt.Errorf("%w: note is required for in-person meeting", ErrValidation)
	}

	var appt *model.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("id = ?", input.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user not found", ErrNotFound)
			}
			return err
		}
		if user.IsBlocked {
			return ErrUserBlocked
		}

		slot, err := s.slotRepo.GetByID(ctx, tx, input.SlotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: slot not found", ErrNotFound)
			}
			return err
		}
		if slot.ServiceName != input.ServiceName {
			return fmt.Errorf("%w: serviceName does not match slot", ErrValidation)
		}
		if slot.Status == model.SlotDisabled {
			return fmt.Errorf("%w: slot disabled", ErrInvalidState)
		}
		if slot.Status != model.SlotAvailable || slot.AppointmentID != nil {
			return ErrSlotConflict
		}

		// 条件更新是唯一的正确性保障；0 行命中即并发竞争失败
		claimed, err := s.slotRepo.Claim(ctx, tx, slot.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrSlotConflict
		}

		appt = &model.Appointment{
			ID:            uuid.New().String(),
			AppointmentNo: generateAppointmentNo(),
			UserID:        user.ID,
			ServiceName:   slot.ServiceName,
			SlotID:        slot.ID,
			ScheduledAt:   slot.StartTime,
			MeetingType:   input.MeetingType,
			Note:          input.Note,
			Status:        model.AppointmentUpcoming,
		}
		if err := s.apptRepo.Create(ctx, tx, appt); err != nil {
			return err
		}
		return s.slotRepo.Link(ctx, tx, slot.ID, appt.ID)
	})
	if err != nil {
		return nil, err
	}

	s.emitStatusEvent(ctx, SystemEventPayload{
		Event:     model.EventAppointmentCreated,
		EntityID:  appt.ID,
		ActorID:   input.UserID,
		ActorRole: model.RoleCustomer,
		UserID:    input.UserID,
		Metadata:  model.JSONMap{"appointmentId": appt.ID, "status": string(appt.Status)},
	})
	return appt, nil
}

// Cancel 取消预约并释放时段，仅 Upcoming 可取消，本人或管理员可操作
func (s *BookingService) Cancel(ctx context.Context, appointmentID string, actor Actor) (*model.Appointment, error) {
	var appt *model.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.apptRepo.GetByID(ctx, tx, appointmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: appointment not found", ErrNotFound)
			}
			return err
		}
		if found.Status != model.AppointmentUpcoming {
			return fmt.Errorf("%w: only upcoming appointments can be cancelled", ErrInvalidState)
		}
		if !actor.IsAdmin() && found.UserID != actor.ID {
			return ErrForbidden
		}
		// 条件更新兜底：读检查之后另一个终态写抢先落地时放弃，不释放时段
		moved, err := s.apptRepo.UpdateStatus(ctx, tx, found.ID, model.AppointmentUpcoming, model.AppointmentCancelled)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: appointment already finalized", ErrInvalidState)
		}
		if err := s.slotRepo.Release(ctx, tx, found.SlotID); err != nil {
			return err
		}
		found.Status = model.AppointmentCancelled
		appt = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitStatusEvent(ctx, SystemEventPayload{
		Event:     model.EventAppointmentStatusChanged,
		EntityID:  appt.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		UserID:    appt.UserID,
		Metadata:  model.JSONMap{"status": string(model.AppointmentCancelled)},
	})
	return appt, nil
}

// Complete 完成预约，仅管理员、仅 Upcoming；Completed 为单向终态
func (s *BookingService) Complete(ctx context.Context, appointmentID string, actor Actor) (*model.Appointment, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	appt, err := s.apptRepo.GetByID(ctx, nil, appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: appointment not found", ErrNotFound)
		}
		return nil, err
	}
	if appt.Status != model.AppointmentUpcoming {
		return nil, fmt.Errorf("%w: only upcoming appointments can be completed", ErrInvalidState)
	}
	moved, err := s.apptRepo.UpdateStatus(ctx, nil, appt.ID, model.AppointmentUpcoming, model.AppointmentCompleted)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, fmt.Errorf("%w: appointment already finalized", ErrInvalidState)
	}
	appt.Status = model.AppointmentCompleted

	s.emitStatusEvent(ctx, SystemEventPayload{
		Event:     model.EventAppointmentStatusChanged,
		EntityID:  appt.ID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		UserID:    appt.UserID,
		Metadata:  model.JSONMap{"status": string(model.AppointmentCompleted)},
	})
	return appt, nil
}

// Get 查询单条预约，客户只能看自己的
func (s *BookingService) Get(ctx context.Context, appointmentID string, actor Actor) (*model.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, nil, appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: appointment not found", ErrNotFound)
		}
		return nil, err
	}
	if !actor.IsAdmin() && appt.UserID != actor.ID {
		return nil, ErrForbidden
	}
	return appt, nil
}

// List 分页查询预约，客户视图强制限定本人
func (s *BookingService) List(ctx context.Context, filter repository.AppointmentFilter, actor Actor) ([]*model.Appointment, int64, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	return s.apptRepo.List(ctx, filter)
}

// emitStatusEvent 业务事务之外发事件，失败只记日志
func (s *BookingService) emitStatusEvent(ctx context.Context, payload SystemEventPayload) {
	if err := s.bus.EmitSystem(ctx, payload); err != nil {
		logger.Error("emit system event failed",
			zap.String("event", string(payload.Event)),
			zap.String("entity_id", payload.EntityID),
			zap.Error(err))
	}
}

// generateAppointmentNo 时间戳 + 随机后缀，避免同毫秒碰撞
func generateAppointmentNo() string {
	return fmt.Sprintf("APPT-%d-%s",
		time.Now().UnixMilli(),
		strings.ToUpper(uuid.New().String()[:8]))
}

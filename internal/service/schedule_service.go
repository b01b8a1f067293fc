package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/cache"
	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
)

var (
	dayPattern  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	timePattern = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
)

// GenerateSlotsInput 批量生成时段入参
type GenerateSlotsInput struct {
	ServiceName string
	Date        string // YYYY-MM-DD
	StartTime   string // HH:mm
	EndTime     string // HH:mm
	DurationMin int
	CreatedByID string
}

// ScheduleService 时段管理；dayCache 可为 nil（测试或未接 Redis 时穿透读库）
type ScheduleService struct {
	slotRepo repository.SlotRepository
	dayCache *cache.ScheduleCache
}

func NewScheduleService(slotRepo repository.SlotRepository, dayCache *cache.ScheduleCache) *ScheduleService {
	return &ScheduleService{slotRepo: slotRepo, dayCache: dayCache}
}

// GenerateSlots 按天窗口切分生成可预约时段；同服务同日期已有时段则冲突
func (s *ScheduleService) GenerateSlots(ctx context.Context, input GenerateSlotsInput) (int, error) {
	if input.DurationMin <= 0 {
		return 0, fmt.Errorf("%w: durationMin must be greater than 0", ErrValidation)
	}
	day, err := parseDay(input.Date)
	if err != nil {
		return 0, err
	}
	start, err := combineDayAndTime(day, input.StartTime)
	if err != nil {
		return 0, err
	}
	end, err := combineDayAndTime(day, input.EndTime)
	if err != nil {
		return 0, err
	}
	if !end.After(start) {
		return 0, fmt.Errorf("%w: endTime must be after startTime", ErrValidation)
	}

	existing, err := s.slotRepo.CountByDay(ctx, input.ServiceName, day)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, fmt.Errorf("%w: slots already exist for this date & service", ErrConflict)
	}

	duration := time.Duration(input.DurationMin) * time.Minute
	var slots []*model.ScheduleSlot
	var createdBy *string
	if input.CreatedByID != "" {
		createdBy = &input.CreatedByID
	}
	for cur := start; !cur.Add(duration).After(end); cur = cur.Add(duration) {
		slots = append(slots, &model.ScheduleSlot{
			ID:          uuid.New().String(),
			ServiceName: input.ServiceName,
			Date:        day,
			StartTime:   cur,
			EndTime:     cur.Add(duration),
			DurationMin: input.DurationMin,
			Status:      model.SlotAvailable,
			CreatedByID: createdBy,
		})
	}
	if len(slots) == 0 {
		return 0, fmt.Errorf("%w: no slots can be generated for this window", ErrValidation)
	}

	if err := s.slotRepo.CreateBatch(ctx, slots); err != nil {
		return 0, err
	}
	if s.dayCache != nil {
		s.dayCache.InvalidateDay(ctx, input.ServiceName, day)
	}
	return len(slots), nil
}

// ListSlots 查询某服务某天的全部时段。
// 走 cache-aside：占用状态的正确性由预约时的条件更新保证，列表允许 TTL 内陈旧。
func (s *ScheduleService) ListSlots(ctx context.Context, serviceName, date string) ([]*model.ScheduleSlot, error) {
	day, err := parseDay(date)
	if err != nil {
		return nil, err
	}
	if s.dayCache != nil {
		if slots, ok := s.dayCache.GetDay(ctx, serviceName, day); ok {
			return slots, nil
		}
	}
	slots, err := s.slotRepo.ListByDay(ctx, serviceName, day)
	if err != nil {
		return nil, err
	}
	if s.dayCache != nil {
		s.dayCache.SetDay(ctx, serviceName, day, slots)
	}
	return slots, nil
}

// DisableSlot 管理员停用时段；已被预约的时段不允许停用
func (s *ScheduleService) DisableSlot(ctx context.Context, slotID string) error {
	slot, err := s.slotRepo.GetByID(ctx, nil, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: slot not found", ErrNotFound)
		}
		return err
	}
	if slot.Status == model.SlotBooked {
		return ErrSlotConflict
	}
	if err := s.slotRepo.Disable(ctx, slotID); err != nil {
		return err
	}
	if s.dayCache != nil {
		s.dayCache.InvalidateDay(ctx, slot.ServiceName, slot.Date)
	}
	return nil
}

func parseDay(dateStr string) (time.Time, error) {
	m := dayPattern.FindStringSubmatch(dateStr)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrValidation)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	dayNum, _ := strconv.Atoi(m[3])
	day := time.Date(year, time.Month(month), dayNum, 0, 0, 0, 0, time.UTC)
	if day.Day() != dayNum || int(day.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: invalid date", ErrValidation)
	}
	return day, nil
}

func combineDayAndTime(day time.Time, timeStr string) (time.Time, error) {
	m := timePattern.FindStringSubmatch(timeStr)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: time must be in HH:mm format", ErrValidation)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 23 || minutes > 59 {
		return time.Time{}, fmt.Errorf("%w: invalid time", ErrValidation)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, 0, 0, time.UTC), nil
}

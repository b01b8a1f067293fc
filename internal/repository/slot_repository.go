package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
)

type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []*model.ScheduleSlot) error
	GetByID(ctx context.Context, db *gorm.DB, id string) (*model.ScheduleSlot, error)
	// Claim 条件更新抢占时段：仅当仍为 Available 且未挂预约时置为 Booked。
	// 影响行数为 0 即并发竞争失败，由调用方按冲突处理。
	Claim(ctx context.Context, db *gorm.DB, slotID string) (bool, error)
	// Link 抢占成功后回写预约 id
	Link(ctx context.Context, db *gorm.DB, slotID, appointmentID string) error
	// Release 取消预约时释放时段
	Release(ctx context.Context, db *gorm.DB, slotID string) error
	Disable(ctx context.Context, slotID string) error
	ListByDay(ctx context.Context, serviceName string, date time.Time) ([]*model.ScheduleSlot, error)
	CountByDay(ctx context.Context, serviceName string, date time.Time) (int64, error)
}

type slotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) SlotRepository { return &slotRepository{db: db} }

// handle 事务内操作传 tx，否则回落到仓储自身连接
func (r *slotRepository) handle(db *gorm.DB) *gorm.DB {
	if db != nil {
		return db
	}
	return r.db
}

func (r *slotRepository) CreateBatch(ctx context.Context, slots []*model.ScheduleSlot) error {
	return r.db.WithContext(ctx).Create(slots).Error
}

func (r *slotRepository) GetByID(ctx context.Context, db *gorm.DB, id string) (*model.ScheduleSlot, error) {
	var slot model.ScheduleSlot
	if err := r.handle(db).WithContext(ctx).Where("id = ?", id).First(&slot).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) Claim(ctx context.Context, db *gorm.DB, slotID string) (bool, error) {
	res := r.handle(db).WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("id = ? AND status = ? AND appointment_id IS NULL", slotID, model.SlotAvailable).
		Update("status", model.SlotBooked)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *slotRepository) Link(ctx context.Context, db *gorm.DB, slotID, appointmentID string) error {
	return r.handle(db).WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("id = ?", slotID).
		Update("appointment_id", appointmentID).Error
}

func (r *slotRepository) Release(ctx context.Context, db *gorm.DB, slotID string) error {
	return r.handle(db).WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("id = ?", slotID).
		Updates(map[string]interface{}{"status": model.SlotAvailable, "appointment_id": nil}).Error
}

func (r *slotRepository) Disable(ctx context.Context, slotID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("id = ?", slotID).
		Update("status", model.SlotDisabled).Error
}

func (r *slotRepository) ListByDay(ctx context.Context, serviceName string, date time.Time) ([]*model.ScheduleSlot, error) {
	var slots []*model.ScheduleSlot
	err := r.db.WithContext(ctx).
		Where("service_name = ? AND date = ?", serviceName, date).
		Order("start_time").
		Find(&slots).Error
	return slots, err
}

func (r *slotRepository) CountByDay(ctx context.Context, serviceName string, date time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("service_name = ? AND date = ?", serviceName, date).
		Count(&cnt).Error
	return cnt, err
}

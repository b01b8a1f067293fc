package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
)

// AppointmentFilter 预约列表过滤条件
type AppointmentFilter struct {
	UserID      string
	Status      model.AppointmentStatus
	MeetingType model.MeetingType
	Offset      int
	Limit       int
}

type AppointmentRepository interface {
	Create(ctx context.Context, db *gorm.DB, appt *model.Appointment) error
	GetByID(ctx context.Context, db *gorm.DB, id string) (*model.Appointment, error)
	// UpdateStatus 条件更新状态：仅当前状态仍为 from 时生效。
	// 影响行数为 0 即并发竞争失败，终态不会被第二个写覆盖。
	UpdateStatus(ctx context.Context, db *gorm.DB, id string, from, to model.AppointmentStatus) (bool, error)
	List(ctx context.Context, filter AppointmentFilter) ([]*model.Appointment, int64, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) handle(db *gorm.DB) *gorm.DB {
	if db != nil {
		return db
	}
	return r.db
}

func (r *appointmentRepository) Create(ctx context.Context, db *gorm.DB, appt *model.Appointment) error {
	return r.handle(db).WithContext(ctx).Create(appt).Error
}

func (r *appointmentRepository) GetByID(ctx context.Context, db *gorm.DB, id string) (*model.Appointment, error) {
	var appt model.Appointment
	if err := r.handle(db).WithContext(ctx).Where("id = ?", id).First(&appt).Error; err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id string, from, to model.AppointmentStatus) (bool, error) {
	res := r.handle(db).WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]*model.Appointment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Appointment{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MeetingType != "" {
		q = q.Where("meeting_type = ?", filter.MeetingType)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []*model.Appointment
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	err := q.Order("scheduled_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&items).Error
	return items, total, err
}

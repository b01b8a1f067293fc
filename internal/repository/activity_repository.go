package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
)

// ActivityFilter 流水查询条件；UserID 为空表示管理员全量视图
type ActivityFilter struct {
	UserID   string
	Event    model.EventKind
	EntityID string
	Offset   int
	Limit    int
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	List(ctx context.Context, filter ActivityFilter) ([]*model.Activity, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository { return &activityRepository{db: db} }

func (r *activityRepository) Create(ctx context.Context, activity *model.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]*model.Activity, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Activity{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Event != "" {
		q = q.Where("event = ?", filter.Event)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	var items []*model.Activity
	err := q.Order("created_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&items).Error
	return items, total, err
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
)

// NotificationFilter 通知查询条件；UserID 为空表示管理员全量视图
type NotificationFilter struct {
	UserID  string
	Event   model.EventKind
	IsRead  *bool // 按调用方角色对应的读标记过滤
	AsAdmin bool
	Offset  int
	Limit   int
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	// MarkRead 置位对应角色的读标记；已读时不产生写（返回 false）
	MarkRead(ctx context.Context, id string, asAdmin bool) (bool, error)
	// MarkAllRead 批量置位，返回实际更新条数
	MarkAllRead(ctx context.Context, userID string, asAdmin bool) (int64, error)
	List(ctx context.Context, filter NotificationFilter) ([]*model.Notification, int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) readColumn(asAdmin bool) string {
	if asAdmin {
		return "is_admin_read"
	}
	return "is_customer_read"
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, asAdmin bool) (bool, error) {
	col := r.readColumn(asAdmin)
	// 标记单调 false→true，已置位时条件不命中即为 no-op
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND "+col+" = ?", id, false).
		Update(col, true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, asAdmin bool) (int64, error) {
	col := r.readColumn(asAdmin)
	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where(col+" = ?", false)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Update(col, true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]*model.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Notification{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Event != "" {
		q = q.Where("event = ?", filter.Event)
	}
	if filter.IsRead != nil {
		q = q.Where(r.readColumn(filter.AsAdmin)+" = ?", *filter.IsRead)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	var items []*model.Notification
	err := q.Order("created_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&items).Error
	return items, total, err
}

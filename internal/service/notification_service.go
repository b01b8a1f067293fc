package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
)

// NotificationService 通知查询与读标记
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List 分页查询，管理员全量视图，客户限定本人
func (s *NotificationService) List(ctx context.Context, filter repository.NotificationFilter, actor Actor) ([]*model.Notification, int64, error) {
	filter.AsAdmin = actor.IsAdmin()
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	return s.repo.List(ctx, filter)
}

// MarkRead 按操作者角色置对应读标记；两个标记相互独立。
// 已读重复标记是 no-op，返回当前状态。
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor Actor) (*model.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: notification not found", ErrNotFound)
		}
		return nil, err
	}
	if !actor.IsAdmin() && n.UserID != actor.ID {
		return nil, ErrForbidden
	}

	updated, err := s.repo.MarkRead(ctx, id, actor.IsAdmin())
	if err != nil {
		return nil, err
	}
	if updated {
		if actor.IsAdmin() {
			n.IsAdminRead = true
		} else {
			n.IsCustomerRead = true
		}
	}
	return n, nil
}

// MarkAllRead 批量置位，返回实际更新条数
func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	userID := actor.ID
	if actor.IsAdmin() {
		userID = "" // 管理员视图覆盖全部通知
	}
	return s.repo.MarkAllRead(ctx, userID, actor.IsAdmin())
}

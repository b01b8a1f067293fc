package service

import (
	"context"
	"time"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
)

// ActivityView 流水对外视图，type/description 来自 metadata 或事件映射
type ActivityView struct {
	ID          string          `json:"id"`
	Event       model.EventKind `json:"event"`
	EntityID    string          `json:"entityId"`
	UserID      string          `json:"userId"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ActivityService 流水查询
type ActivityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// List 分页查询流水，管理员全量视图，客户限定本人
func (s *ActivityService) List(ctx context.Context, filter repository.ActivityFilter, actor Actor) ([]ActivityView, int64, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	views := make([]ActivityView, 0, len(items))
	for _, a := range items {
		view := ActivityView{
			ID:        a.ID,
			Event:     a.Event,
			EntityID:  a.EntityID,
			UserID:    a.UserID,
			CreatedAt: a.CreatedAt,
		}
		if view.Type = a.Metadata.String("type"); view.Type == "" {
			view.Type = ActivityType(a.Event)
		}
		if view.Description = a.Metadata.String("description"); view.Description == "" {
			view.Description = ActivityDescription(a.Event, a.Metadata)
		}
		views = append(views, view)
	}
	return views, total, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/queue"
	"github.com/d60-Lab/booking-platform/internal/repository"
)

// SystemEventPayload 业务操作产生的系统事件
type SystemEventPayload struct {
	Event     model.EventKind `json:"event"`
	EntityID  string          `json:"entityId"`
	ActorID   string          `json:"actorId"`
	ActorRole model.UserRole  `json:"actorRole"`
	UserID    string          `json:"userId,omitempty"`
	Metadata  model.JSONMap   `json:"metadata,omitempty"`
	Broadcast bool            `json:"broadcast,omitempty"`
}

// AdminEventPayload 管理员手工事件（定向或广播）
type AdminEventPayload struct {
	ActorID   string        `json:"actorId"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	UserIDs   []string      `json:"userIds,omitempty"`
	Broadcast bool          `json:"broadcast,omitempty"`
	Metadata  model.JSONMap `json:"metadata,omitempty"`
}

// EventBus 事件入口：同步校验后持久化入队即返回（接收语义，不是送达语义）
type EventBus struct {
	enqueuer queue.Enqueuer
	userRepo repository.UserRepository
}

func NewEventBus(enqueuer queue.Enqueuer, userRepo repository.UserRepository) *EventBus {
	return &EventBus{enqueuer: enqueuer, userRepo: userRepo}
}

// EmitSystem 投递系统事件
func (b *EventBus) EmitSystem(ctx context.Context, payload SystemEventPayload) error {
	if !payload.Event.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", ErrValidation, payload.Event)
	}
	if payload.ActorID == "" {
		return fmt.Errorf("%w: actorId is required", ErrValidation)
	}
	if err := b.enqueuer.Enqueue(ctx, queue.TopicEvents, queue.JobSystemEvent, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// EmitAdmin 投递管理员事件；非广播必须带目标用户
func (b *EventBus) EmitAdmin(ctx context.Context, payload AdminEventPayload) error {
	if payload.ActorID == "" {
		return fmt.Errorf("%w: actorId is required", ErrValidation)
	}
	if payload.Title == "" || payload.Message == "" {
		return fmt.Errorf("%w: title and message are required", ErrValidation)
	}
	if !payload.Broadcast && len(payload.UserIDs) == 0 {
		return fmt.Errorf("%w: userIds must be provided when broadcast is false", ErrValidation)
	}
	if err := b.enqueuer.Enqueue(ctx, queue.TopicEvents, queue.JobAdminEvent, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ResolveSystemTargets 系统事件目标：客户触发只通知本人；管理员触发按 broadcast / userId
func (b *EventBus) ResolveSystemTargets(ctx context.Context, payload SystemEventPayload) ([]string, error) {
	if payload.ActorRole == model.RoleCustomer {
		return []string{payload.ActorID}, nil
	}
	if payload.Broadcast {
		return b.userRepo.ListIDs(ctx)
	}
	if payload.UserID != "" {
		return []string{payload.UserID}, nil
	}
	return nil, nil
}

// ResolveAdminTargets 管理员事件目标：broadcast 为全量用户，否则取显式 userIds 去重
func (b *EventBus) ResolveAdminTargets(ctx context.Context, payload AdminEventPayload) ([]string, error) {
	if payload.Broadcast {
		return b.userRepo.ListIDs(ctx)
	}
	seen := make(map[string]struct{}, len(payload.UserIDs))
	targets := make([]string, 0, len(payload.UserIDs))
	for _, id := range payload.UserIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	return targets, nil
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/gateway"
	"github.com/d60-Lab/booking-platform/internal/mailer"
	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/queue"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/internal/service"
	"github.com/d60-Lab/booking-platform/pkg/logger"
)

// ActivityCreatePayload 单个收件人的流水写入任务
type ActivityCreatePayload struct {
	Event    model.EventKind `json:"event"`
	EntityID string          `json:"entityId"`
	ActorID  string          `json:"actorId"`
	UserID   string          `json:"userId"`
	Metadata model.JSONMap   `json:"metadata,omitempty"`
}

// NotificationCreatePayload 单个收件人的通知写入任务
type NotificationCreatePayload struct {
	UserID   string          `json:"userId"`
	Event    model.EventKind `json:"event"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Metadata model.JSONMap   `json:"metadata,omitempty"`
}

// NotificationEmitPayload 推送任务只带通知 id，persist 与 push 解耦
type NotificationEmitPayload struct {
	NotificationID string `json:"notificationId"`
}

// EmailPayload 邮件任务
type EmailPayload struct {
	UserID  string `json:"userId"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EventWorker 消费事件类任务：解析目标、落 Activity/Notification、触发实时推送
type EventWorker struct {
	q         *queue.Queue
	bus       *service.EventBus
	userRepo  repository.UserRepository
	actRepo   repository.ActivityRepository
	notifRepo repository.NotificationRepository
	gw        *gateway.Gateway
	mail      mailer.Mailer
}

func NewEventWorker(
	q *queue.Queue,
	bus *service.EventBus,
	userRepo repository.UserRepository,
	actRepo repository.ActivityRepository,
	notifRepo repository.NotificationRepository,
	gw *gateway.Gateway,
	mail mailer.Mailer,
) *EventWorker {
	return &EventWorker{
		q:         q,
		bus:       bus,
		userRepo:  userRepo,
		actRepo:   actRepo,
		notifRepo: notifRepo,
		gw:        gw,
		mail:      mail,
	}
}

// Register 挂载全部处理函数，需在队列 Start 之前调用
func (w *EventWorker) Register() {
	w.q.Consume(queue.TopicEvents, queue.JobSystemEvent, w.handleSystemEvent)
	w.q.Consume(queue.TopicEvents, queue.JobAdminEvent, w.handleAdminEvent)
	w.q.Consume(queue.TopicActivities, queue.JobActivityCreate, w.handleActivityCreate)
	w.q.Consume(queue.TopicNotifications, queue.JobNotificationCreate, w.handleNotificationCreate)
	w.q.Consume(queue.TopicNotifications, queue.JobNotificationEmit, w.handleNotificationEmit)
	w.q.Consume(queue.TopicEmails, queue.JobSendEmail, w.handleSendEmail)
}

// handleSystemEvent 每个目标用户各派生一条 activity 任务和一条 notification 任务。
// 两类任务分 topic 独立重试，一边失败不阻塞另一边。
func (w *EventWorker) handleSystemEvent(ctx context.Context, job queue.Job) error {
	var payload service.SystemEventPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode system event: %w", err)
	}

	targets, err := w.bus.ResolveSystemTargets(ctx, payload)
	if err != nil {
		return fmt.Errorf("resolve targets: %w", err)
	}
	if len(targets) == 0 {
		logger.Warn("system event resolved no targets",
			zap.String("event", string(payload.Event)),
			zap.String("entity_id", payload.EntityID))
		return nil
	}

	content := service.BuildContent(payload.Event, payload.Metadata)
	merged := service.MergeActivityMetadata(payload.Event, payload.Metadata, content.Message)

	return w.fanOut(ctx, job.ID, payload.Event, payload.EntityID, payload.ActorID, targets, content, payload.Metadata, merged, false)
}

// handleAdminEvent 管理员手工事件：文案取自载荷本身，另发一封通知邮件
func (w *EventWorker) handleAdminEvent(ctx context.Context, job queue.Job) error {
	var payload service.AdminEventPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode admin event: %w", err)
	}

	targets, err := w.bus.ResolveAdminTargets(ctx, payload)
	if err != nil {
		return fmt.Errorf("resolve targets: %w", err)
	}
	if len(targets) == 0 {
		logger.Warn("admin event resolved no targets", zap.String("actor_id", payload.ActorID))
		return nil
	}

	// 实体 id 取任务 id：重放同一个事件任务时派生任务不变
	content := service.Content{Title: payload.Title, Message: payload.Message}
	merged := service.MergeActivityMetadata(model.EventAdminManual, payload.Metadata, payload.Message)

	return w.fanOut(ctx, job.ID, model.EventAdminManual, job.ID, payload.ActorID, targets, content, payload.Metadata, merged, true)
}

// fanOut 给每个目标派生流水/通知/邮件任务。
// 子任务 id 由父任务 id + 收件人推导：父任务崩溃重放或部分入队后重试，
// 派生出的仍是同一批 id，落库那头靠主键去重。
func (w *EventWorker) fanOut(
	ctx context.Context,
	parentJobID string,
	kind model.EventKind,
	entityID, actorID string,
	targets []string,
	content service.Content,
	metadata, activityMetadata model.JSONMap,
	withEmail bool,
) error {
	for _, userID := range targets {
		if err := w.q.EnqueueWithID(ctx, queue.TopicActivities, queue.JobActivityCreate,
			deriveJobID(parentJobID, userID, "activity"), ActivityCreatePayload{
				Event:    kind,
				EntityID: entityID,
				ActorID:  actorID,
				UserID:   userID,
				Metadata: activityMetadata,
			}); err != nil {
			return fmt.Errorf("enqueue activity for %s: %w", userID, err)
		}
		if err := w.q.EnqueueWithID(ctx, queue.TopicNotifications, queue.JobNotificationCreate,
			deriveJobID(parentJobID, userID, "notification"), NotificationCreatePayload{
				UserID:   userID,
				Event:    kind,
				Title:    content.Title,
				Message:  content.Message,
				Metadata: metadata,
			}); err != nil {
			return fmt.Errorf("enqueue notification for %s: %w", userID, err)
		}
		if withEmail {
			if err := w.q.EnqueueWithID(ctx, queue.TopicEmails, queue.JobSendEmail,
				deriveJobID(parentJobID, userID, "email"), EmailPayload{
					UserID:  userID,
					Subject: content.Title,
					Body:    content.Message,
				}); err != nil {
				return fmt.Errorf("enqueue email for %s: %w", userID, err)
			}
		}
	}
	return nil
}

// deriveJobID 可重算的派生任务 id（UUIDv5）
func deriveJobID(parentJobID, userID, kind string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(parentJobID+"/"+userID+"/"+kind)).String()
}

func (w *EventWorker) handleActivityCreate(ctx context.Context, job queue.Job) error {
	var payload ActivityCreatePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode activity payload: %w", err)
	}
	// 任务 id 作主键，重复投递不会写出第二条
	return w.createIgnoreDuplicate(func() error {
		return w.actRepo.Create(ctx, &model.Activity{
			ID:       job.ID,
			Event:    payload.Event,
			EntityID: payload.EntityID,
			ActorID:  payload.ActorID,
			UserID:   payload.UserID,
			Metadata: payload.Metadata,
		})
	})
}

// handleNotificationCreate 落库后另起 emit 任务；push 失败重试不会重建通知行
func (w *EventWorker) handleNotificationCreate(ctx context.Context, job queue.Job) error {
	var payload NotificationCreatePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode notification payload: %w", err)
	}

	if _, err := w.notifRepo.GetByID(ctx, job.ID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := w.createIgnoreDuplicate(func() error {
			return w.notifRepo.Create(ctx, &model.Notification{
				ID:       job.ID,
				UserID:   payload.UserID,
				Event:    payload.Event,
				Title:    payload.Title,
				Message:  payload.Message,
				Metadata: payload.Metadata,
			})
		}); err != nil {
			return err
		}
	}

	if err := w.q.Enqueue(ctx, queue.TopicNotifications, queue.JobNotificationEmit, NotificationEmitPayload{
		NotificationID: job.ID,
	}); err != nil {
		return fmt.Errorf("enqueue emit: %w", err)
	}
	return nil
}

// handleNotificationEmit 幂等推送：通知不存在视为成功，重复执行只多一次无害推送
func (w *EventWorker) handleNotificationEmit(ctx context.Context, job queue.Job) error {
	var payload NotificationEmitPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode emit payload: %w", err)
	}
	n, err := w.notifRepo.GetByID(ctx, payload.NotificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return w.gw.Emit(ctx, n)
}

func (w *EventWorker) handleSendEmail(ctx context.Context, job queue.Job) error {
	var payload EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode email payload: %w", err)
	}
	user, err := w.userRepo.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return w.mail.Send(ctx, user.Email, payload.Subject, payload.Body)
}

// createIgnoreDuplicate 主键冲突视为已写入成功
func (w *EventWorker) createIgnoreDuplicate(create func() error) error {
	err := create()
	if err == nil || errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/booking-platform/pkg/logger"
)

// 队列 topic
const (
	TopicEvents        = "events"
	TopicActivities    = "activities"
	TopicNotifications = "notifications"
	TopicEmails        = "emails"
)

// 任务 kind
const (
	JobSystemEvent        = "system.event"
	JobAdminEvent         = "admin.event"
	JobActivityCreate     = "activity.create"
	JobNotificationCreate = "notification.create"
	JobNotificationEmit   = "notification.emit"
	JobSendEmail          = "email.send"
)

// Job 队列任务；Attempt 为已失败次数
type Job struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Attempt     int             `json:"attempt"`
	MaxAttempts int             `json:"max_attempts"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
}

// Handler 任务处理函数；返回错误则按退避策略重试
type Handler func(ctx context.Context, job Job) error

// Enqueuer 入队端口，生产者只依赖这个接口
type Enqueuer interface {
	Enqueue(ctx context.Context, topic, kind string, payload interface{}) error
}

// Options 队列参数
type Options struct {
	Workers      int           // 每个 topic 的消费协程数
	MaxAttempts  int           // 重试上限（含首次执行）
	Backoff      time.Duration // 指数退避基数：backoff * 2^(attempt-1)
	PollInterval time.Duration
}

func (o *Options) withDefaults() {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 50 * time.Millisecond
	}
}

// Queue 基于 Redis list + delayed zset 的持久化多 topic 队列，at-least-once 投递
type Queue struct {
	rdb  *redis.Client
	opts Options

	mu       sync.Mutex
	handlers map[string]map[string]Handler // topic -> kind -> handler

	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

func New(rdb *redis.Client, opts Options) *Queue {
	opts.withDefaults()
	return &Queue{
		rdb:      rdb,
		opts:     opts,
		handlers: make(map[string]map[string]Handler),
		stop:     make(chan struct{}),
	}
}

func listKey(topic string) string       { return "queue:" + topic }
func delayedKey(topic string) string    { return "queue:" + topic + ":delayed" }
func deadKey(topic string) string       { return "queue:" + topic + ":dead" }
func processingKey(topic string) string { return "queue:" + topic + ":processing" }

// Enqueue 序列化任务并 LPUSH；返回即代表已持久化接收，不代表已投递
func (q *Queue) Enqueue(ctx context.Context, topic, kind string, payload interface{}) error {
	return q.EnqueueWithID(ctx, topic, kind, uuid.New().String(), payload)
}

// EnqueueWithID 指定任务 id 入队。at-least-once 下父任务可能重放，
// 派生子任务时用可重算的 id 才能让 id 作主键的写入保持幂等。
func (q *Queue) EnqueueWithID(ctx context.Context, topic, kind, id string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:          id,
		Kind:        kind,
		Payload:     raw,
		MaxAttempts: q.opts.MaxAttempts,
		EnqueuedAt:  time.Now(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, listKey(topic), data).Err(); err != nil {
		return fmt.Errorf("enqueue %s/%s: %w", topic, kind, err)
	}
	return nil
}

// Consume 注册某 topic 下某 kind 的处理函数，需在 Start 之前调用
func (q *Queue) Consume(topic, kind string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handlers[topic] == nil {
		q.handlers[topic] = make(map[string]Handler)
	}
	q.handlers[topic][kind] = handler
}

// Start 为每个已注册 topic 启动消费池和延迟任务调度
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	for topic := range q.handlers {
		q.recoverProcessing(topic)
		for i := 0; i < q.opts.Workers; i++ {
			q.wg.Add(1)
			go q.consumeLoop(topic)
		}
		q.wg.Add(1)
		go q.scheduleLoop(topic)
	}
}

// Stop 停止消费；正在执行的任务跑完为止
func (q *Queue) Stop() {
	close(q.stop)
	q.wg.Wait()
}

// recoverProcessing 把上次异常退出遗留在 processing 的任务放回队列
func (q *Queue) recoverProcessing(topic string) {
	ctx := context.Background()
	for {
		data, err := q.rdb.RPopLPush(ctx, processingKey(topic), listKey(topic)).Result()
		if err != nil || data == "" {
			return
		}
	}
}

func (q *Queue) consumeLoop(topic string) {
	defer q.wg.Done()
	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			for q.processOne(topic) {
				select {
				case <-q.stop:
					return
				default:
				}
			}
		}
	}
}

// processOne 取一个任务执行，返回是否取到任务
func (q *Queue) processOne(topic string) bool {
	ctx := context.Background()
	data, err := q.rdb.RPopLPush(ctx, listKey(topic), processingKey(topic)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Error("queue pop failed", zap.String("topic", topic), zap.Error(err))
		}
		return false
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		logger.Error("queue job malformed, dropping to dead letter",
			zap.String("topic", topic), zap.Error(err))
		q.rdb.LPush(ctx, deadKey(topic), data)
		q.rdb.LRem(ctx, processingKey(topic), 1, data)
		return true
	}

	q.mu.Lock()
	handler := q.handlers[topic][job.Kind]
	q.mu.Unlock()

	if handler == nil {
		logger.Warn("no handler for job kind",
			zap.String("topic", topic), zap.String("kind", job.Kind))
		q.rdb.LPush(ctx, deadKey(topic), data)
		q.rdb.LRem(ctx, processingKey(topic), 1, data)
		return true
	}

	if err := handler(ctx, job); err != nil {
		q.retry(ctx, topic, job, data, err)
	} else {
		q.rdb.LRem(ctx, processingKey(topic), 1, data)
	}
	return true
}

// retry 失败任务进延迟集合，超限进死信
func (q *Queue) retry(ctx context.Context, topic string, job Job, original string, cause error) {
	job.Attempt++
	defer q.rdb.LRem(ctx, processingKey(topic), 1, original)

	if job.Attempt >= job.MaxAttempts {
		data, _ := json.Marshal(job)
		q.rdb.LPush(ctx, deadKey(topic), data)
		logger.Error("queue job exhausted retries, dead-lettered",
			zap.String("topic", topic),
			zap.String("kind", job.Kind),
			zap.String("job_id", job.ID),
			zap.Int("attempts", job.Attempt),
			zap.Error(cause))
		return
	}

	delay := time.Duration(float64(q.opts.Backoff) * math.Pow(2, float64(job.Attempt-1)))
	due := time.Now().Add(delay)
	data, _ := json.Marshal(job)
	q.rdb.ZAdd(ctx, delayedKey(topic), redis.Z{
		Score:  float64(due.UnixNano()),
		Member: string(data),
	})
	logger.Warn("queue job failed, scheduled retry",
		zap.String("topic", topic),
		zap.String("kind", job.Kind),
		zap.String("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
		zap.Duration("delay", delay),
		zap.Error(cause))
}

// scheduleLoop 把到期的延迟任务搬回主队列
func (q *Queue) scheduleLoop(topic string) {
	defer q.wg.Done()
	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			q.promoteDue(topic)
		}
	}
}

func (q *Queue) promoteDue(topic string) {
	ctx := context.Background()
	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	members, err := q.rdb.ZRangeByScore(ctx, delayedKey(topic), &redis.ZRangeBy{
		Min: "-inf", Max: now,
	}).Result()
	if err != nil || len(members) == 0 {
		return
	}
	for _, m := range members {
		// ZRem 返回 1 才算抢到这条，多实例下不会重复搬运
		removed, err := q.rdb.ZRem(ctx, delayedKey(topic), m).Result()
		if err != nil || removed == 0 {
			continue
		}
		q.rdb.LPush(ctx, listKey(topic), m)
	}
}

// DeadLetters 读取死信任务供运维排查
func (q *Queue) DeadLetters(ctx context.Context, topic string) ([]Job, error) {
	items, err := q.rdb.LRange(ctx, deadKey(topic), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		var job Job
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

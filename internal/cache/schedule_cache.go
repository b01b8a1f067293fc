package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/booking-platform/internal/model"
)

// ScheduleCache 按 服务+日期 缓存整天的时段快照。
// 时段占用状态以库里的条件更新为准，缓存只服务列表展示；
// TTL 内的短暂陈旧可接受，生成/停用等结构性变更主动失效。
type ScheduleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *ScheduleCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ScheduleCache{rdb: rdb, ttl: ttl}
}

func dayKey(serviceName string, date time.Time) string {
	return fmt.Sprintf("schedule:%s:%s", serviceName, date.Format("2006-01-02"))
}

// GetDay 读取某天的时段快照；未命中或数据损坏返回 (nil, false)
func (c *ScheduleCache) GetDay(ctx context.Context, serviceName string, date time.Time) ([]*model.ScheduleSlot, bool) {
	data, err := c.rdb.Get(ctx, dayKey(serviceName, date)).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []*model.ScheduleSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

// SetDay 写入快照，写失败静默降级为穿透读
func (c *ScheduleCache) SetDay(ctx context.Context, serviceName string, date time.Time, slots []*model.ScheduleSlot) {
	payload, err := json.Marshal(slots)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, dayKey(serviceName, date), payload, c.ttl).Err()
}

// InvalidateDay 结构性变更（生成、停用）后主动失效
func (c *ScheduleCache) InvalidateDay(ctx context.Context, serviceName string, date time.Time) {
	_ = c.rdb.Del(ctx, dayKey(serviceName, date)).Err()
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/booking-platform/internal/model"
)

func newTestCache(t *testing.T) (*ScheduleCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Minute), mr
}

func sampleSlots(day time.Time) []*model.ScheduleSlot {
	return []*model.ScheduleSlot{
		{
			ID:          "s1",
			ServiceName: "consultation",
			Date:        day,
			StartTime:   day.Add(9 * time.Hour),
			EndTime:     day.Add(9*time.Hour + 30*time.Minute),
			DurationMin: 30,
			Status:      model.SlotAvailable,
		},
	}
}

func TestScheduleCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, ok := c.GetDay(ctx, "consultation", day)
	require.False(t, ok)

	c.SetDay(ctx, "consultation", day, sampleSlots(day))

	got, ok := c.GetDay(ctx, "consultation", day)
	require.True(t, ok)
	require.Len(t, got, 1)
	require.Equal(t, "s1", got[0].ID)

	// 其它服务或日期互不串线
	_, ok = c.GetDay(ctx, "tax-review", day)
	require.False(t, ok)
	_, ok = c.GetDay(ctx, "consultation", day.AddDate(0, 0, 1))
	require.False(t, ok)
}

func TestScheduleCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	c.SetDay(ctx, "consultation", day, sampleSlots(day))
	c.InvalidateDay(ctx, "consultation", day)

	_, ok := c.GetDay(ctx, "consultation", day)
	require.False(t, ok)
}

func TestScheduleCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	c.SetDay(ctx, "consultation", day, sampleSlots(day))
	mr.FastForward(2 * time.Minute)

	_, ok := c.GetDay(ctx, "consultation", day)
	require.False(t, ok)
}

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接：并发用例在同一个内存库上串行执行
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.ScheduleSlot{},
		&model.Appointment{},
		&model.Activity{},
		&model.Notification{},
	))
	return db
}

func seedSlot(t *testing.T, db *gorm.DB, status model.SlotStatus) *model.ScheduleSlot {
	t.Helper()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	slot := &model.ScheduleSlot{
		ID:          uuid.New().String(),
		ServiceName: "consultation",
		Date:        day,
		StartTime:   day.Add(9 * time.Hour),
		EndTime:     day.Add(9*time.Hour + 30*time.Minute),
		DurationMin: 30,
		Status:      status,
	}
	require.NoError(t, db.Create(slot).Error)
	return slot
}

func TestClaimSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()
	slot := seedSlot(t, db, model.SlotAvailable)

	const concurrency = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	start := make(chan struct{})
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			claimed, err := repo.Claim(ctx, nil, slot.ID)
			require.NoError(t, err)
			if claimed {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, winners)

	got, err := repo.GetByID(ctx, nil, slot.ID)
	require.NoError(t, err)
	require.Equal(t, model.SlotBooked, got.Status)
}

func TestClaimSkipsNonAvailable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()

	booked := seedSlot(t, db, model.SlotBooked)
	claimed, err := repo.Claim(ctx, nil, booked.ID)
	require.NoError(t, err)
	require.False(t, claimed)

	disabled := seedSlot(t, db, model.SlotDisabled)
	claimed, err = repo.Claim(ctx, nil, disabled.ID)
	require.NoError(t, err)
	require.False(t, claimed)
}

func TestReleaseMakesSlotClaimableAgain(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()
	slot := seedSlot(t, db, model.SlotAvailable)

	claimed, err := repo.Claim(ctx, nil, slot.ID)
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, repo.Link(ctx, nil, slot.ID, "appt-1"))

	// 占用期间再抢必败
	claimed, err = repo.Claim(ctx, nil, slot.ID)
	require.NoError(t, err)
	require.False(t, claimed)

	require.NoError(t, repo.Release(ctx, nil, slot.ID))
	got, err := repo.GetByID(ctx, nil, slot.ID)
	require.NoError(t, err)
	require.Equal(t, model.SlotAvailable, got.Status)
	require.Nil(t, got.AppointmentID)

	claimed, err = repo.Claim(ctx, nil, slot.ID)
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestListByDayOrdersByStartTime(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSlotRepository(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	var slots []*model.ScheduleSlot
	for _, hour := range []int{14, 9, 11} {
		slots = append(slots, &model.ScheduleSlot{
			ID:          uuid.New().String(),
			ServiceName: "consultation",
			Date:        day,
			StartTime:   day.Add(time.Duration(hour) * time.Hour),
			EndTime:     day.Add(time.Duration(hour)*time.Hour + 30*time.Minute),
			DurationMin: 30,
			Status:      model.SlotAvailable,
		})
	}
	require.NoError(t, repo.CreateBatch(ctx, slots))

	got, err := repo.ListByDay(ctx, "consultation", day)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.True(t, got[0].StartTime.Before(got[1].StartTime))
	require.True(t, got[1].StartTime.Before(got[2].StartTime))

	cnt, err := repo.CountByDay(ctx, "consultation", day)
	require.NoError(t, err)
	require.EqualValues(t, 3, cnt)
}

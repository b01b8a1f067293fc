package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/booking-platform/config"
	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/queue"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/internal/service"
	"github.com/d60-Lab/booking-platform/pkg/database"
	"github.com/d60-Lab/booking-platform/pkg/redisx"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// 压测单时段抢占：CONC 个用户同时预约同一个时段，预期恰好 1 个成功；
// 再压 SLOTS 个时段的总吞吐。
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	rdb := must(redisx.New(cfg))

	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	jobQueue := queue.New(rdb, queue.Options{})
	bus := service.NewEventBus(jobQueue, userRepo)
	bookingSvc := service.NewBookingService(db, userRepo, slotRepo, apptRepo, bus)

	ctx := context.Background()
	CONC := envInt("CONC", 50)
	SLOTS := envInt("SLOTS", 200)

	// seed users
	users := make([]model.User, CONC)
	for i := range users {
		id := uuid.New().String()
		users[i] = model.User{ID: id, Username: "u" + id[:8], Email: id[:8] + "@example.com", Password: "p", Role: model.RoleCustomer}
	}
	must(0, db.Create(&users).Error)

	day := time.Now().Truncate(24 * time.Hour)
	newSlot := func() *model.ScheduleSlot {
		return &model.ScheduleSlot{
			ID:          uuid.New().String(),
			ServiceName: "consultation",
			Date:        day,
			StartTime:   day.Add(9 * time.Hour),
			EndTime:     day.Add(9*time.Hour + 30*time.Minute),
			DurationMin: 30,
			Status:      model.SlotAvailable,
		}
	}

	// phase 1: contention on a single slot
	slot := newSlot()
	must(0, db.Create(slot).Error)

	var won, lost, failed int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	t0 := time.Now()
	for i := 0; i < CONC; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := bookingSvc.Create(ctx, service.CreateAppointmentInput{
				SlotID:      slot.ID,
				ServiceName: "consultation",
				UserID:      users[i].ID,
				MeetingType: model.MeetingVirtual,
			})
			switch {
			case err == nil:
				atomic.AddInt64(&won, 1)
			case errors.Is(err, service.ErrSlotConflict):
				atomic.AddInt64(&lost, 1)
			default:
				atomic.AddInt64(&failed, 1)
			}
		}(i)
	}
	close(start)
	wg.Wait()
	contendDur := time.Since(t0)

	// phase 2: throughput, one user per slot
	slots := make([]*model.ScheduleSlot, SLOTS)
	for i := range slots {
		slots[i] = newSlot()
		must(0, db.Create(slots[i]).Error)
	}
	lats := make([]time.Duration, SLOTS)
	t1 := time.Now()
	var wg2 sync.WaitGroup
	for i := 0; i < SLOTS; i++ {
		wg2.Add(1)
		go func(i int) {
			defer wg2.Done()
			st := time.Now()
			_, _ = bookingSvc.Create(ctx, service.CreateAppointmentInput{
				SlotID:      slots[i].ID,
				ServiceName: "consultation",
				UserID:      users[i%CONC].ID,
				MeetingType: model.MeetingVirtual,
			})
			lats[i] = time.Since(st)
		}(i)
	}
	wg2.Wait()
	throughputDur := time.Since(t1)

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	fmt.Printf("CONC=%d, SLOTS=%d\n", CONC, SLOTS)
	fmt.Printf("Contention: won=%d lost=%d failed=%d in %v (expect won=1)\n", won, lost, failed, contendDur)
	fmt.Printf("Throughput: %d bookings in %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		SLOTS, throughputDur, throughputDur/time.Duration(SLOTS), pct(lats, 0.50), pct(lats, 0.95), pct(lats, 0.99))
}

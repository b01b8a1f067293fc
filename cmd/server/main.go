package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/booking-platform/config"
	_ "github.com/d60-Lab/booking-platform/docs"
	"github.com/d60-Lab/booking-platform/internal/api/handler"
	"github.com/d60-Lab/booking-platform/internal/api/router"
	"github.com/d60-Lab/booking-platform/internal/cache"
	"github.com/d60-Lab/booking-platform/internal/gateway"
	"github.com/d60-Lab/booking-platform/internal/mailer"
	"github.com/d60-Lab/booking-platform/internal/queue"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/internal/service"
	"github.com/d60-Lab/booking-platform/internal/worker"
	"github.com/d60-Lab/booking-platform/pkg/database"
	"github.com/d60-Lab/booking-platform/pkg/jwtauth"
	"github.com/d60-Lab/booking-platform/pkg/logger"
	"github.com/d60-Lab/booking-platform/pkg/redisx"
	"github.com/d60-Lab/booking-platform/pkg/telemetry"
)

// @title Booking Platform API
// @version 1.0
// @description 多租户预约平台：并发安全的时段预约 + 异步事件管道 + 实时通知推送
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, cfg)
	if err != nil {
		logger.Fatal("telemetry init failed", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	rdb, err := redisx.New(cfg)
	if err != nil {
		logger.Fatal("redis init failed", zap.Error(err))
	}
	defer rdb.Close()

	tokens := jwtauth.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	actRepo := repository.NewActivityRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	jobQueue := queue.New(rdb, queue.Options{
		Workers:     cfg.Queue.Workers,
		MaxAttempts: cfg.Queue.MaxAttempts,
		Backoff:     cfg.Queue.Backoff,
	})

	eventBus := service.NewEventBus(jobQueue, userRepo)
	authService := service.NewAuthService(userRepo, tokens)
	bookingService := service.NewBookingService(db, userRepo, slotRepo, apptRepo, eventBus)
	scheduleService := service.NewScheduleService(slotRepo, cache.New(rdb, 30*time.Second))
	notifService := service.NewNotificationService(notifRepo)
	activityService := service.NewActivityService(actRepo)

	gw := gateway.New(gateway.NewHub(), userRepo, tokens, rdb)
	gw.Start()
	defer gw.Stop()

	eventWorker := worker.NewEventWorker(jobQueue, eventBus, userRepo, actRepo, notifRepo, gw, mailer.NewLogMailer())
	eventWorker.Register()
	jobQueue.Start()
	defer jobQueue.Stop()

	h := handler.New(authService, bookingService, scheduleService, eventBus, notifService, activityService, jobQueue)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router.New(cfg, h, gw, tokens),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

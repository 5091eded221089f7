// File: consultly/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"consultly/config"
	"consultly/cron"
	"consultly/database"
	bookingRepo "consultly/database/repository/booking"
	identityRepo "consultly/database/repository/identity"
	slotRepo "consultly/database/repository/slot"
	waitlistRepo "consultly/database/repository/waitlist"
	"consultly/models"
	"consultly/services/booking"
	"consultly/services/notification"
	"consultly/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// repositories.
	slots := slotRepo.NewMongoSlotRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	waitlist := waitlistRepo.NewMongoWaitlistRepo()
	identity := identityRepo.NewMongoIdentityRepo()

	for name, ensure := range map[string]func() error{
		"slots":    slots.EnsureIndexes,
		"bookings": bookings.EnsureIndexes,
		"waitlist": waitlist.EnsureIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	// asynq client for outbound notification tasks.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()

	notificationService, err := notification.NewDefaultNotificationService(asynqClient)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize notification service: %v", err)
	}

	// services.
	slotService := &booking.DefaultSlotService{Slots: slots}

	waitlistService := &booking.DefaultWaitlistService{
		Entries:         waitlist,
		Slots:           slots,
		Identity:        identity,
		NotificationSvc: notificationService,
		CacheClient:     utils.GetCacheClient(),
		EntryTTL:        time.Duration(config.AppConfig.WaitlistEntryTTLHours) * time.Hour,
	}
	// Freed slots trigger waitlist promotion through the slot manager.
	slotService.Promoter = waitlistService

	bookingService := &booking.DefaultBookingService{
		Bookings:        bookings,
		Slots:           slotService,
		Identity:        identity,
		NotificationSvc: notificationService,
		AllowAdhoc:      config.AppConfig.AllowAdhocBookings,
	}
	_ = bookingService // handed to the transport layer of the deployment

	// Background worker: notification delivery + waitlist stale sweep.
	cron.InitWorker(logDeliverer{logger: logger}, waitlistService)

	logger.Info("consultly scheduling core started",
		zap.Bool("adhocBookings", config.AppConfig.AllowAdhocBookings),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
}

// logDeliverer stands in for the real delivery integration, which is wired
// per deployment. It only records what would have been sent.
type logDeliverer struct {
	logger *zap.Logger
}

func (d logDeliverer) Deliver(_ context.Context, p models.NotificationPayload) error {
	d.logger.Info("delivering notification",
		zap.String("kind", p.Kind),
		zap.String("recipient", p.Recipient),
		zap.String("title", p.Title),
	)
	return nil
}

package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"consultly/config"
	"consultly/models"
	"consultly/services/notification"
)

const TypeWaitlistExpire = "waitlist:expire"

// Deliverer performs the actual outbound delivery (email, push). Its
// implementation lives outside this module; the worker only dispatches.
type Deliverer interface {
	Deliver(ctx context.Context, payload models.NotificationPayload) error
}

// StaleSweeper expires pending waitlist entries past their expiry.
type StaleSweeper interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// InitWorker runs the async worker in background: notification delivery
// dispatch plus the periodic waitlist stale sweep.
func InitWorker(deliverer Deliverer, sweeper StaleSweeper) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: config.AppConfig.WorkerConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeNotificationSend, handleNotificationTask(deliverer))
	mux.HandleFunc(TypeWaitlistExpire, handleExpireTask(sweeper))

	// Start Redis health monitor
	go monitorRedisConnection()

	go scheduleExpireSweep(redisOpts)

	// Start async worker with retry logic
	go func() {
		log.Println("[Worker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Worker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleNotificationTask(deliverer Deliverer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.NotificationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[NotificationHandler] Invalid payload: %v", err)
			return err
		}

		if err := deliverer.Deliver(ctx, p); err != nil {
			log.Printf("[NotificationHandler] Failed to deliver %s notification to %s: %v", p.Kind, p.Recipient, err)
			return err
		}
		return nil
	}
}

func handleExpireTask(sweeper StaleSweeper) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		expired, err := sweeper.ExpireStale(ctx)
		if err != nil {
			log.Printf("[ExpireHandler] Waitlist sweep failed: %v", err)
			return err
		}
		if expired > 0 {
			log.Printf("[ExpireHandler] Expired %d stale waitlist entries", expired)
		}
		return nil
	}
}

// scheduleExpireSweep registers the periodic waitlist sweep so deployments
// get it without an external cron trigger.
func scheduleExpireSweep(redisOpts asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})

	task := asynq.NewTask(TypeWaitlistExpire, nil)
	if _, err := scheduler.Register("@every 15m", task); err != nil {
		log.Printf("[Worker] Failed to register waitlist sweep: %v", err)
		return
	}
	if err := scheduler.Run(); err != nil {
		log.Printf("[Worker] Scheduler stopped: %v", err)
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[Worker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}

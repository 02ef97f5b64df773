package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smiledesk/admin-api/internal/config"
	"github.com/smiledesk/admin-api/internal/notification"
	"github.com/smiledesk/admin-api/internal/repository/postgres"
	internalWorker "github.com/smiledesk/admin-api/internal/worker"
	"github.com/smiledesk/admin-api/pkg/logger"
	"github.com/smiledesk/admin-api/pkg/messaging/redis"
	"github.com/smiledesk/admin-api/pkg/metrics"
	"github.com/smiledesk/admin-api/pkg/worker"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	aptRepo := postgres.NewAppointmentRepository(db)

	broker, err := redis.NewRedisBroker(redis.Config{
		URL: redisURL(cfg.Redis),
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	notifier := notification.NewNoop()
	if cfg.Notification.Enabled {
		notifier = notification.NewSMTP(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log)
	}

	m := metrics.NewMetrics("smiledesk")

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval(),
		Retention:    time.Duration(cfg.Outbox.RetentionDays) * 24 * time.Hour,
	}, log, m)

	reminder := internalWorker.NewReminder(aptRepo, notifier, log, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go processor.Start(ctx)
	go reminder.Start(ctx)

	// Slow cadence cleanup of processed outbox rows.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := processor.Cleanup(ctx); err != nil {
					log.Error(err, "outbox cleanup failed")
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker")
	cancel()
}

func redisURL(cfg config.RedisConfig) string {
	if cfg.Password != "" {
		return fmt.Sprintf("redis://:%s@%s/%d", cfg.Password, cfg.Addr, cfg.DB)
	}
	return fmt.Sprintf("redis://%s/%d", cfg.Addr, cfg.DB)
}

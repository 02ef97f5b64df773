package worker

import (
	"context"
	"time"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/notification"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/internal/service/availability"
	"github.com/smiledesk/admin-api/pkg/logger"
)

// Reminder sends a day-before email for confirmed appointments. It runs
// once per scan interval and tolerates individual send failures.
type Reminder struct {
	aptRepo  repository.AppointmentRepository
	notifier notification.Service
	logger   *logger.Logger
	interval time.Duration
	now      func() time.Time
}

func NewReminder(
	aptRepo repository.AppointmentRepository,
	notifier notification.Service,
	log *logger.Logger,
	interval time.Duration,
) *Reminder {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Reminder{
		aptRepo:  aptRepo,
		notifier: notifier,
		logger:   log,
		interval: interval,
		now:      time.Now,
	}
}

func (r *Reminder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting reminder worker")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("shutting down reminder worker")
			return
		case <-ticker.C:
			r.scan(ctx)
		}
	}
}

func (r *Reminder) scan(ctx context.Context) {
	tomorrow := availability.DayOf(r.now()).AddDate(0, 0, 1)

	appointments, err := r.aptRepo.ListUpcoming(ctx, tomorrow, model.AppointmentStatusConfirmed)
	if err != nil {
		r.logger.Error(err, "failed to list upcoming appointments")
		return
	}

	for _, apt := range appointments {
		if err := r.notifier.SendReminder(ctx, apt); err != nil {
			r.logger.Error(err, "failed to send reminder",
				"appointment_id", apt.ID.String())
		}
	}
}

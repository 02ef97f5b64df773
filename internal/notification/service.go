package notification

import (
	"context"

	"github.com/smiledesk/admin-api/internal/model"
)

// Service delivers patient-facing notifications. Delivery is best effort;
// callers log failures and move on.
type Service interface {
	SendBookingConfirmation(ctx context.Context, clinic *model.Clinic, apt *model.Appointment) error
	SendStatusUpdate(ctx context.Context, clinic *model.Clinic, apt *model.Appointment) error
	SendReminder(ctx context.Context, apt *model.Appointment) error
}

type noop struct{}

// NewNoop returns a notification service that discards everything. Used when
// SMTP is not configured.
func NewNoop() Service {
	return noop{}
}

func (noop) SendBookingConfirmation(context.Context, *model.Clinic, *model.Appointment) error {
	return nil
}

func (noop) SendStatusUpdate(context.Context, *model.Clinic, *model.Appointment) error {
	return nil
}

func (noop) SendReminder(context.Context, *model.Appointment) error {
	return nil
}

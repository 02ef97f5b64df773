package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/pkg/logger"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewSMTP returns a gomail-backed notification service.
func NewSMTP(cfg SMTPConfig, log *logger.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: log,
	}
}

func (s *smtpService) SendBookingConfirmation(ctx context.Context, clinic *model.Clinic, apt *model.Appointment) error {
	if apt.Patient == nil {
		return fmt.Errorf("appointment has no patient loaded")
	}

	subject := fmt.Sprintf("Booking received at %s", clinic.Name)
	body := fmt.Sprintf(
		"Hi %s,\n\nwe received your booking for %s at %s. The clinic will confirm it shortly.\n\n%s",
		apt.Patient.Name, apt.Date.Format(model.DateOnly), apt.Time, clinic.Name,
	)
	return s.send(apt.Patient.Email, subject, body)
}

func (s *smtpService) SendStatusUpdate(ctx context.Context, clinic *model.Clinic, apt *model.Appointment) error {
	if apt.Patient == nil {
		return fmt.Errorf("appointment has no patient loaded")
	}

	subject := fmt.Sprintf("Your appointment at %s is %s", clinic.Name, apt.Status)
	body := fmt.Sprintf(
		"Hi %s,\n\nyour appointment on %s at %s is now %s.\n\n%s",
		apt.Patient.Name, apt.Date.Format(model.DateOnly), apt.Time, apt.Status, clinic.Name,
	)
	return s.send(apt.Patient.Email, subject, body)
}

func (s *smtpService) SendReminder(ctx context.Context, apt *model.Appointment) error {
	if apt.Patient == nil {
		return fmt.Errorf("appointment has no patient loaded")
	}

	subject := "Appointment reminder"
	body := fmt.Sprintf(
		"Hi %s,\n\nthis is a reminder for your appointment tomorrow at %s.",
		apt.Patient.Name, apt.Time,
	)
	return s.send(apt.Patient.Email, subject, body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/notification"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/internal/service/availability"
	"github.com/smiledesk/admin-api/internal/service/event"
	"github.com/smiledesk/admin-api/pkg/apperror"
	"github.com/smiledesk/admin-api/pkg/logger"
)

// Action is a staff-initiated lifecycle action. Patients cannot trigger
// transitions.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// transitions is the closed transition table. Absent entries are rejected;
// in particular nothing leads out of cancelled or completed.
var transitions = map[model.AppointmentStatus]map[Action]model.AppointmentStatus{
	model.AppointmentStatusPending: {
		ActionConfirm:  model.AppointmentStatusConfirmed,
		ActionCancel:   model.AppointmentStatusCancelled,
		ActionComplete: model.AppointmentStatusCompleted,
	},
	model.AppointmentStatusConfirmed: {
		ActionCancel:   model.AppointmentStatusCancelled,
		ActionComplete: model.AppointmentStatusCompleted,
	},
}

var eventForAction = map[Action]string{
	ActionConfirm:  model.EventAppointmentConfirmed,
	ActionCancel:   model.EventAppointmentCancelled,
	ActionComplete: model.EventAppointmentCompleted,
}

type Service struct {
	aptRepo     repository.AppointmentRepository
	clinicRepo  repository.ClinicRepository
	serviceRepo repository.ServiceRepository
	patientRepo repository.PatientRepository
	events      event.Emitter
	notifier    notification.Service
	logger      *logger.Logger
}

func NewService(
	aptRepo repository.AppointmentRepository,
	clinicRepo repository.ClinicRepository,
	serviceRepo repository.ServiceRepository,
	patientRepo repository.PatientRepository,
	events event.Emitter,
	notifier notification.Service,
	log *logger.Logger,
) *Service {
	return &Service{
		aptRepo:     aptRepo,
		clinicRepo:  clinicRepo,
		serviceRepo: serviceRepo,
		patientRepo: patientRepo,
		events:      events,
		notifier:    notifier,
		logger:      log,
	}
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.aptRepo.Get(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.aptRepo.List(ctx, clinicID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Transition applies a lifecycle action. The appointment is looked up scoped
// to the acting clinic, so a foreign appointment id comes back not found
// regardless of the requested action.
func (s *Service) Transition(ctx context.Context, clinicID, id uuid.UUID, action Action) (*model.Appointment, error) {
	apt, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	next, ok := transitions[apt.Status][action]
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidTransition,
			fmt.Sprintf("cannot %s a %s appointment", action, apt.Status))
	}

	if err := s.aptRepo.UpdateStatus(ctx, clinicID, id, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	apt.Status = next

	if err := s.events.Emit(ctx, eventForAction[action], apt); err != nil {
		s.logger.Error(err, "failed to emit transition event")
	}
	s.notifyStatusChange(ctx, apt)

	return apt, nil
}

// Update reschedules or edits an appointment. The slot-conflict check is
// re-applied (excluding the appointment's own id) whenever date or time
// changes, and existence checks whenever the service or patient changes.
// Terminal appointments cannot be edited.
func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if apt.Status.Terminal() {
		return nil, apperror.New(apperror.CodeInvalidTransition,
			fmt.Sprintf("cannot edit a %s appointment", apt.Status))
	}

	clinic, err := s.clinicRepo.Get(ctx, clinicID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ClinicNotFound()
		}
		return nil, fmt.Errorf("failed to resolve clinic: %w", err)
	}

	date := apt.Date
	slot := apt.Time
	if req.Date != nil {
		parsed, err := time.Parse(model.DateOnly, *req.Date)
		if err != nil {
			return nil, apperror.BadRequest("invalid date, want YYYY-MM-DD")
		}
		date = availability.DayOf(parsed)
	}
	if req.Time != nil {
		slot = *req.Time
	}

	if !date.Equal(apt.Date) || slot != apt.Time {
		if !slotConfigured(clinic.TimeSlots, slot) {
			return nil, apperror.InvalidTimeSlot(slot)
		}
		taken, err := s.aptRepo.ExistsAt(ctx, clinicID, date, slot, &apt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check slot: %w", err)
		}
		if taken {
			return nil, apperror.SlotAlreadyBooked()
		}
	}

	if req.ServiceID != nil && *req.ServiceID != apt.ServiceID {
		svc, err := s.serviceRepo.Get(ctx, clinicID, *req.ServiceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperror.ServiceNotFound()
			}
			return nil, fmt.Errorf("failed to resolve service: %w", err)
		}
		if !svc.Active {
			return nil, apperror.ServiceNotFound()
		}
		apt.ServiceID = svc.ID
		apt.Service = svc
	}

	if req.PatientID != nil && *req.PatientID != apt.PatientID {
		patient, err := s.patientRepo.Get(ctx, clinicID, *req.PatientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperror.PatientNotFound()
			}
			return nil, fmt.Errorf("failed to resolve patient: %w", err)
		}
		apt.PatientID = patient.ID
		apt.Patient = patient
	}

	apt.Date = date
	apt.Time = slot
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}

	if err := s.aptRepo.Update(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperror.SlotAlreadyBooked()
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) notifyStatusChange(ctx context.Context, apt *model.Appointment) {
	clinic, err := s.clinicRepo.Get(ctx, apt.ClinicID)
	if err != nil {
		s.logger.Error(err, "failed to load clinic for notification")
		return
	}
	if apt.Patient == nil {
		return
	}
	if err := s.notifier.SendStatusUpdate(ctx, clinic, apt); err != nil {
		s.logger.Error(err, "failed to send status notification")
	}
}

func slotConfigured(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

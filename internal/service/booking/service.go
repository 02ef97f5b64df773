package booking

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

// Service validates and writes bookings. Validation failures surface as
// typed errors before any write; the storage-level unique index backstops
// the conflict check, so a race lost between the proactive check and the
// insert still comes back as SlotAlreadyBooked.
type Service struct {
	clinicRepo  repository.ClinicRepository
	serviceRepo repository.ServiceRepository
	patientRepo repository.PatientRepository
	aptRepo     repository.AppointmentRepository
	events      event.Emitter
	notifier    notification.Service
	logger      *logger.Logger
}

func NewService(
	clinicRepo repository.ClinicRepository,
	serviceRepo repository.ServiceRepository,
	patientRepo repository.PatientRepository,
	aptRepo repository.AppointmentRepository,
	events event.Emitter,
	notifier notification.Service,
	log *logger.Logger,
) *Service {
	return &Service{
		clinicRepo:  clinicRepo,
		serviceRepo: serviceRepo,
		patientRepo: patientRepo,
		aptRepo:     aptRepo,
		events:      events,
		notifier:    notifier,
		logger:      log,
	}
}

// CreateBooking is the public self-service flow. The patient is
// found-or-created by (clinic, email) and the appointment starts pending.
func (s *Service) CreateBooking(ctx context.Context, clinicID uuid.UUID, info model.PatientInfo, serviceID uuid.UUID, date time.Time, slot, notes string) (*model.Appointment, error) {
	clinic, svc, err := s.validateTarget(ctx, clinicID, serviceID, date, slot, nil)
	if err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		ClinicID:  clinic.ID,
		ServiceID: svc.ID,
		Date:      availability.DayOf(date),
		Time:      slot,
		Status:    model.AppointmentStatusPending,
		Notes:     notes,
	}
	patient := &model.Patient{
		ClinicID:    clinic.ID,
		Name:        info.Name,
		Email:       info.Email,
		Phone:       info.Phone,
		DateOfBirth: info.DateOfBirth,
	}

	if err := s.aptRepo.CreateWithPatient(ctx, apt, patient); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperror.SlotAlreadyBooked()
		}
		return nil, fmt.Errorf("failed to write booking: %w", err)
	}
	apt.Patient = patient
	apt.Service = svc

	s.afterWrite(ctx, clinic, apt, model.EventAppointmentCreated)
	return apt, nil
}

// CreateAdminAppointment is the staff flow: the booking is presumed accepted
// and starts confirmed. New patients are created inline, but an email already
// registered with another clinic is rejected, unlike the public flow which
// scopes lookup per clinic.
func (s *Service) CreateAdminAppointment(ctx context.Context, clinicID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	date, err := time.Parse(model.DateOnly, req.Date)
	if err != nil {
		return nil, apperror.BadRequest("invalid date, want YYYY-MM-DD")
	}

	clinic, svc, err := s.validateTarget(ctx, clinicID, req.ServiceID, date, req.Time, nil)
	if err != nil {
		return nil, err
	}

	patient, err := s.resolveAdminPatient(ctx, clinic.ID, req)
	if err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		ClinicID:  clinic.ID,
		PatientID: patient.ID,
		ServiceID: svc.ID,
		Date:      availability.DayOf(date),
		Time:      req.Time,
		Status:    model.AppointmentStatusConfirmed,
		Notes:     req.Notes,
	}

	if err := s.aptRepo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperror.SlotAlreadyBooked()
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	apt.Patient = patient
	apt.Service = svc

	s.afterWrite(ctx, clinic, apt, model.EventAppointmentCreated)
	return apt, nil
}

// validateTarget runs the ordered checks shared by both booking flows:
// clinic resolvable and active, service resolvable and active, slot
// configured, slot free.
func (s *Service) validateTarget(ctx context.Context, clinicID, serviceID uuid.UUID, date time.Time, slot string, excludeID *uuid.UUID) (*model.Clinic, *model.Service, error) {
	clinic, err := s.clinicRepo.Get(ctx, clinicID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperror.ClinicNotFound()
		}
		return nil, nil, fmt.Errorf("failed to resolve clinic: %w", err)
	}
	if !clinic.Active {
		return nil, nil, apperror.ClinicNotFound()
	}

	svc, err := s.serviceRepo.Get(ctx, clinic.ID, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperror.ServiceNotFound()
		}
		return nil, nil, fmt.Errorf("failed to resolve service: %w", err)
	}
	if !svc.Active {
		return nil, nil, apperror.ServiceNotFound()
	}

	if !slotConfigured(clinic.TimeSlots, slot) {
		return nil, nil, apperror.InvalidTimeSlot(slot)
	}

	taken, err := s.aptRepo.ExistsAt(ctx, clinic.ID, availability.DayOf(date), slot, excludeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		return nil, nil, apperror.SlotAlreadyBooked()
	}

	return clinic, svc, nil
}

func (s *Service) resolveAdminPatient(ctx context.Context, clinicID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Patient, error) {
	if req.PatientID != nil {
		patient, err := s.patientRepo.Get(ctx, clinicID, *req.PatientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperror.PatientNotFound()
			}
			return nil, fmt.Errorf("failed to resolve patient: %w", err)
		}
		return patient, nil
	}

	if req.PatientInfo == nil {
		return nil, apperror.BadRequest("patient_id or patient is required")
	}
	info := req.PatientInfo

	patient, err := s.patientRepo.GetByEmail(ctx, clinicID, info.Email)
	if err == nil {
		patient.Name = info.Name
		patient.Phone = info.Phone
		if info.DateOfBirth != nil {
			patient.DateOfBirth = info.DateOfBirth
		}
		if err := s.patientRepo.Update(ctx, patient); err != nil {
			return nil, fmt.Errorf("failed to update patient: %w", err)
		}
		return patient, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up patient: %w", err)
	}

	// Staff-entered patients must not reuse an email already registered with
	// a different clinic.
	elsewhere, err := s.patientRepo.EmailExistsElsewhere(ctx, clinicID, info.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient email: %w", err)
	}
	if elsewhere {
		return nil, apperror.EmailInUse()
	}

	patient = &model.Patient{
		ClinicID:    clinicID,
		Name:        info.Name,
		Email:       info.Email,
		Phone:       info.Phone,
		DateOfBirth: info.DateOfBirth,
	}
	if err := s.patientRepo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.EmailInUse()
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) afterWrite(ctx context.Context, clinic *model.Clinic, apt *model.Appointment, eventType string) {
	if err := s.events.Emit(ctx, eventType, apt); err != nil {
		s.logger.Error(err, "failed to emit booking event")
	}
	if err := s.notifier.SendBookingConfirmation(ctx, clinic, apt); err != nil {
		s.logger.Error(err, "failed to send booking confirmation")
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

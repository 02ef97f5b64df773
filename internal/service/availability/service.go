package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/pkg/apperror"
)

// DefaultHorizonDays bounds the rolling window scanned by AvailableDates.
const DefaultHorizonDays = 30

type Service struct {
	clinicRepo  repository.ClinicRepository
	serviceRepo repository.ServiceRepository
	aptRepo     repository.AppointmentRepository
	now         func() time.Time
}

func NewService(clinicRepo repository.ClinicRepository, serviceRepo repository.ServiceRepository, aptRepo repository.AppointmentRepository) *Service {
	return &Service{
		clinicRepo:  clinicRepo,
		serviceRepo: serviceRepo,
		aptRepo:     aptRepo,
		now:         time.Now,
	}
}

// AvailableTimes returns the clinic's free slots for the given calendar day,
// sorted ascending. A slot is free unless a non-cancelled appointment holds
// it. A clinic with no configured slots yields an empty result, not an error.
func (s *Service) AvailableTimes(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]string, error) {
	clinic, err := s.clinicRepo.Get(ctx, clinicID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ClinicNotFound()
		}
		return nil, fmt.Errorf("failed to resolve clinic: %w", err)
	}

	return s.freeSlots(ctx, clinic, DayOf(date))
}

func (s *Service) freeSlots(ctx context.Context, clinic *model.Clinic, day time.Time) ([]string, error) {
	if len(clinic.TimeSlots) == 0 {
		return []string{}, nil
	}

	bookedTimes, err := s.aptRepo.BookedTimes(ctx, clinic.ID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked times: %w", err)
	}

	booked := make(map[string]struct{}, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = struct{}{}
	}

	free := make([]string, 0, len(clinic.TimeSlots))
	for _, slot := range clinic.TimeSlots {
		if _, taken := booked[slot]; !taken {
			free = append(free, slot)
		}
	}

	// Zero-padded HH:MM sorts correctly as plain strings.
	sort.Strings(free)
	return free, nil
}

// AvailableDates scans a rolling window starting today and returns the days
// that still have at least one free slot, formatted as YYYY-MM-DD. Service
// duration is not considered.
func (s *Service) AvailableDates(ctx context.Context, clinicID, serviceID uuid.UUID, horizonDays int) ([]string, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	clinic, err := s.clinicRepo.Get(ctx, clinicID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ClinicNotFound()
		}
		return nil, fmt.Errorf("failed to resolve clinic: %w", err)
	}

	svc, err := s.serviceRepo.Get(ctx, clinic.ID, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ServiceNotFound()
		}
		return nil, fmt.Errorf("failed to resolve service: %w", err)
	}
	if !svc.Active {
		return nil, apperror.ServiceNotFound()
	}

	dates := make([]string, 0, horizonDays)
	start := DayOf(s.now())
	for i := 0; i < horizonDays; i++ {
		day := start.AddDate(0, 0, i)
		free, err := s.freeSlots(ctx, clinic, day)
		if err != nil {
			return nil, err
		}
		if len(free) > 0 {
			dates = append(dates, day.Format(model.DateOnly))
		}
	}
	return dates, nil
}

// DayOf truncates t to its calendar day in UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

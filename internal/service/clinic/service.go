package clinic

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/pkg/apperror"
)

var slotFormat = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Service manages the tenant's clinic profile, including the slot grid the
// availability resolver reads from.
type Service struct {
	clinicRepo repository.ClinicRepository
}

func NewService(clinicRepo repository.ClinicRepository) *Service {
	return &Service{clinicRepo: clinicRepo}
}

func (s *Service) Get(ctx context.Context, clinicID uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.clinicRepo.Get(ctx, clinicID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ClinicNotFound()
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return clinic, nil
}

// GetBySlug resolves the public booking-page clinic. Inactive clinics are
// hidden from the public surface.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	clinic, err := s.clinicRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ClinicNotFound()
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	if !clinic.Active {
		return nil, apperror.ClinicNotFound()
	}
	return clinic, nil
}

func (s *Service) Update(ctx context.Context, clinicID uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error) {
	clinic, err := s.Get(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	if req.TimeSlots != nil {
		slots, err := normalizeSlots(req.TimeSlots)
		if err != nil {
			return nil, err
		}
		clinic.TimeSlots = slots
	}
	if req.Name != nil {
		clinic.Name = *req.Name
	}
	if req.Phone != nil {
		clinic.Phone = *req.Phone
	}
	if req.Address != nil {
		clinic.Address = *req.Address
	}
	if req.Active != nil {
		clinic.Active = *req.Active
	}

	if err := s.clinicRepo.Update(ctx, clinic); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ClinicNotFound()
		}
		return nil, fmt.Errorf("failed to update clinic: %w", err)
	}
	return clinic, nil
}

// normalizeSlots validates the HH:MM grid, dedupes and sorts it. An empty
// grid is allowed and simply makes the clinic unbookable.
func normalizeSlots(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, slot := range in {
		if !slotFormat.MatchString(slot) {
			return nil, apperror.BadRequest(fmt.Sprintf("invalid time slot %q, want HH:MM", slot))
		}
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	sort.Strings(out)
	return out, nil
}

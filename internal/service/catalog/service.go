package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/internal/service/access"
	"github.com/smiledesk/admin-api/pkg/apperror"
)

// Service manages the clinic's treatment catalog. Creation is gated by the
// plan ceiling; edits and deactivation are not.
type Service struct {
	serviceRepo repository.ServiceRepository
	access      *access.Service
}

func NewService(serviceRepo repository.ServiceRepository, accessSvc *access.Service) *Service {
	return &Service{serviceRepo: serviceRepo, access: accessSvc}
}

func (s *Service) Create(ctx context.Context, ownerID, clinicID uuid.UUID, req *model.CreateServiceRequest) (*model.Service, error) {
	perm, err := s.access.CanCreateService(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !perm.Allowed {
		return nil, apperror.AccessDenied(
			fmt.Sprintf("plan %s allows at most %d services", perm.Plan, perm.Limit))
	}

	svc := &model.Service{
		ClinicID:    clinicID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		DurationMin: req.DurationMin,
		Active:      true,
	}
	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Service, error) {
	svc, err := s.serviceRepo.Get(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ServiceNotFound()
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*model.Service, error) {
	services, err := s.serviceRepo.List(ctx, clinicID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.PriceCents != nil {
		svc.PriceCents = *req.PriceCents
	}
	if req.DurationMin != nil {
		svc.DurationMin = *req.DurationMin
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}

	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ServiceNotFound()
		}
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	return svc, nil
}

// Delete soft-deletes the service. Existing appointments keep their
// reference; the service just stops being bookable and listed.
func (s *Service) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	if err := s.serviceRepo.SoftDelete(ctx, clinicID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.ServiceNotFound()
		}
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return nil
}

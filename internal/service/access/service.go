package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/pkg/apperror"
)

// Fixed policy inputs. These are product constants, not tenant data.
const (
	TrialDays = 3

	MaxServicesBasic        = 3
	MaxServicesProfessional = 40
)

const (
	subCacheTTL     = time.Minute
	subCacheCleanup = 5 * time.Minute
)

// Service is the access gate: it decides whether an owner can use scheduling
// at all, and whether the plan ceiling permits creating another service.
type Service struct {
	ownerRepo   repository.OwnerRepository
	subRepo     repository.SubscriptionRepository
	clinicRepo  repository.ClinicRepository
	serviceRepo repository.ServiceRepository
	subCache    *gocache.Cache
	now         func() time.Time
}

func NewService(
	ownerRepo repository.OwnerRepository,
	subRepo repository.SubscriptionRepository,
	clinicRepo repository.ClinicRepository,
	serviceRepo repository.ServiceRepository,
) *Service {
	return &Service{
		ownerRepo:   ownerRepo,
		subRepo:     subRepo,
		clinicRepo:  clinicRepo,
		serviceRepo: serviceRepo,
		subCache:    gocache.New(subCacheTTL, subCacheCleanup),
		now:         time.Now,
	}
}

// SchedulingAccess returns the owner's access verdict. An active
// subscription grants access unconditionally; otherwise the owner is on
// trial until signup + TrialDays, and locked out after that.
func (s *Service) SchedulingAccess(ctx context.Context, ownerID uuid.UUID) (*model.AccessStatus, error) {
	sub, err := s.subscription(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if sub != nil && sub.Status == model.SubscriptionStatusActive {
		return &model.AccessStatus{
			HasAccess:             true,
			HasActiveSubscription: true,
			Plan:                  sub.Plan,
		}, nil
	}

	owner, err := s.ownerRepo.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized("unknown owner")
		}
		return nil, fmt.Errorf("failed to resolve owner: %w", err)
	}

	trialEnd := owner.CreatedAt.AddDate(0, 0, TrialDays)
	if !s.now().After(trialEnd) {
		return &model.AccessStatus{
			HasAccess: true,
			OnTrial:   true,
			Plan:      model.PlanTrial,
		}, nil
	}

	return &model.AccessStatus{
		HasAccess: false,
		Plan:      model.PlanExpired,
	}, nil
}

// CanCreateService applies the plan ceiling. The ceiling counts every
// service ever created for the clinic, soft-deleted ones included. Trial
// owners are not capped.
func (s *Service) CanCreateService(ctx context.Context, ownerID uuid.UUID) (*model.ServicePermission, error) {
	status, err := s.SchedulingAccess(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if !status.HasAccess {
		return &model.ServicePermission{Allowed: false, Plan: model.PlanExpired}, nil
	}

	if status.OnTrial {
		return &model.ServicePermission{Allowed: true, Plan: model.PlanTrial}, nil
	}

	limit := planLimit(status.Plan)

	clinic, err := s.clinicRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ClinicNotFound()
		}
		return nil, fmt.Errorf("failed to resolve clinic: %w", err)
	}

	used, err := s.serviceRepo.CountAll(ctx, clinic.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count services: %w", err)
	}

	return &model.ServicePermission{
		Allowed: used < limit,
		Plan:    status.Plan,
		Limit:   limit,
		Used:    used,
	}, nil
}

// Invalidate drops the cached subscription for an owner. The billing
// webhook calls this so plan changes take effect immediately.
func (s *Service) Invalidate(ownerID uuid.UUID) {
	s.subCache.Delete(ownerID.String())
}

func (s *Service) subscription(ctx context.Context, ownerID uuid.UUID) (*model.Subscription, error) {
	key := ownerID.String()
	if cached, ok := s.subCache.Get(key); ok {
		sub, _ := cached.(*model.Subscription)
		return sub, nil
	}

	sub, err := s.subRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Cache the absence too; most trial owners have no row.
			s.subCache.Set(key, (*model.Subscription)(nil), subCacheTTL)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve subscription: %w", err)
	}

	s.subCache.Set(key, sub, subCacheTTL)
	return sub, nil
}

func planLimit(plan model.Plan) int {
	switch plan {
	case model.PlanProfessional:
		return MaxServicesProfessional
	default:
		return MaxServicesBasic
	}
}

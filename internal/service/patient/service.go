package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/pkg/apperror"
)

// Service manages the clinic's patient roster. Patients created here follow
// the staff policy: an email registered with another clinic is rejected.
type Service struct {
	patientRepo repository.PatientRepository
}

func NewService(patientRepo repository.PatientRepository) *Service {
	return &Service{patientRepo: patientRepo}
}

func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, info *model.PatientInfo) (*model.Patient, error) {
	elsewhere, err := s.patientRepo.EmailExistsElsewhere(ctx, clinicID, info.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient email: %w", err)
	}
	if elsewhere {
		return nil, apperror.EmailInUse()
	}

	patient := &model.Patient{
		ClinicID:    clinicID,
		Name:        info.Name,
		Email:       info.Email,
		Phone:       info.Phone,
		DateOfBirth: info.DateOfBirth,
	}
	if err := s.patientRepo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.New(apperror.CodeEmailInUse, "a patient with this email already exists")
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patientRepo.Get(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.PatientNotFound()
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error) {
	patients, err := s.patientRepo.List(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != patient.Email {
		elsewhere, err := s.patientRepo.EmailExistsElsewhere(ctx, clinicID, *req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check patient email: %w", err)
		}
		if elsewhere {
			return nil, apperror.EmailInUse()
		}
		patient.Email = *req.Email
	}
	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}

	if err := s.patientRepo.Update(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.New(apperror.CodeEmailInUse, "a patient with this email already exists")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.PatientNotFound()
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/pkg/apperror"
	"github.com/smiledesk/admin-api/pkg/auth"
	"github.com/smiledesk/admin-api/pkg/security"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// defaultTimeSlots is the starter grid for new clinics: hourly slots over a
// standard workday. Owners adjust it from the clinic settings.
var defaultTimeSlots = []string{
	"09:00", "10:00", "11:00", "12:00",
	"14:00", "15:00", "16:00", "17:00",
}

// Service handles owner signup and login. Registration creates the owner and
// their clinic together; the signup timestamp anchors the trial window.
type Service struct {
	ownerRepo  repository.OwnerRepository
	clinicRepo repository.ClinicRepository
	hasher     security.PasswordHasher
	jwt        auth.JWTService
}

func NewService(
	ownerRepo repository.OwnerRepository,
	clinicRepo repository.ClinicRepository,
	hasher security.PasswordHasher,
	jwtSvc auth.JWTService,
) *Service {
	return &Service{
		ownerRepo:  ownerRepo,
		clinicRepo: clinicRepo,
		hasher:     hasher,
		jwt:        jwtSvc,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	if _, err := s.ownerRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.New(apperror.CodeEmailInUse, "an account with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check owner email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperror.BadRequest(fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen))
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	owner := &model.Owner{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
	}
	if err := s.ownerRepo.Create(ctx, owner); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.New(apperror.CodeEmailInUse, "an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}

	clinic := &model.Clinic{
		OwnerID:   owner.ID,
		Name:      req.ClinicName,
		Slug:      s.uniqueSlug(ctx, req.ClinicName),
		Active:    true,
		TimeSlots: defaultTimeSlots,
	}
	if err := s.clinicRepo.Create(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to create clinic: %w", err)
	}

	return s.issueToken(owner, clinic)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	owner, err := s.ownerRepo.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to look up owner: %w", err)
	}

	if err := s.hasher.Compare(owner.PasswordHash, req.Password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	clinic, err := s.clinicRepo.GetByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve clinic: %w", err)
	}

	return s.issueToken(owner, clinic)
}

func (s *Service) issueToken(owner *model.Owner, clinic *model.Clinic) (*model.TokenResponse, error) {
	token, expiresAt, err := s.jwt.GenerateToken(owner.ID, clinic.ID, owner.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &model.TokenResponse{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// uniqueSlug derives a URL slug from the clinic name, appending a numeric
// suffix until it is free.
func (s *Service) uniqueSlug(ctx context.Context, name string) string {
	base := Slugify(name)
	slug := base
	for i := 2; ; i++ {
		_, err := s.clinicRepo.GetBySlug(ctx, slug)
		if errors.Is(err, repository.ErrNotFound) {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Slugify lowercases the name and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "clinic"
	}
	return slug
}

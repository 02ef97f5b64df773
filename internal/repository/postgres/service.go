package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
)

const serviceColumns = `
	id, clinic_id, name, description, price_cents, duration_min, active,
	created_at, updated_at, deleted_at
`

func (r *serviceRepository) Create(ctx context.Context, service *model.Service) error {
	query := `
		INSERT INTO services (
			id, clinic_id, name, description, price_cents, duration_min, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	service.ID = uuid.New()
	service.CreatedAt = time.Now()
	service.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		service.ID,
		service.ClinicID,
		service.Name,
		service.Description,
		service.PriceCents,
		service.DurationMin,
		service.Active,
		service.CreatedAt,
		service.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *serviceRepository) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE id = $1 AND clinic_id = $2 AND deleted_at IS NULL
	`
	var service model.Service
	err := r.db.GetContext(ctx, &service, query, id, clinicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &service, nil
}

func (r *serviceRepository) Update(ctx context.Context, service *model.Service) error {
	query := `
		UPDATE services
		SET name = $1, description = $2, price_cents = $3, duration_min = $4,
			active = $5, updated_at = $6
		WHERE id = $7 AND clinic_id = $8 AND deleted_at IS NULL
	`
	service.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		service.Name,
		service.Description,
		service.PriceCents,
		service.DurationMin,
		service.Active,
		service.UpdatedAt,
		service.ID,
		service.ClinicID,
	)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *serviceRepository) SoftDelete(ctx context.Context, clinicID, id uuid.UUID) error {
	query := `
		UPDATE services
		SET active = false, deleted_at = $1, updated_at = $1
		WHERE id = $2 AND clinic_id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, clinicID)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *serviceRepository) List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*model.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE clinic_id = $1 AND deleted_at IS NULL
	`
	if !includeInactive {
		query += ` AND active = true`
	}
	query += ` ORDER BY name ASC`

	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (r *serviceRepository) CountAll(ctx context.Context, clinicID uuid.UUID) (int, error) {
	// Deliberately counts soft-deleted rows as well; the plan ceiling is an
	// accumulation over everything ever created.
	query := `SELECT COUNT(*) FROM services WHERE clinic_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, clinicID); err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}
	return count, nil
}

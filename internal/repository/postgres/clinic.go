package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
)

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (
			id, owner_id, name, slug, phone, address, active, time_slots,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	clinic.ID = uuid.New()
	clinic.CreatedAt = time.Now()
	clinic.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		clinic.ID,
		clinic.OwnerID,
		clinic.Name,
		clinic.Slug,
		clinic.Phone,
		clinic.Address,
		clinic.Active,
		pq.Array(clinic.TimeSlots),
		clinic.CreatedAt,
		clinic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	return nil
}

const clinicColumns = `
	id, owner_id, name, slug, phone, address, active, time_slots,
	created_at, updated_at, deleted_at
`

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE id = $1 AND deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

func (r *clinicRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE owner_id = $1 AND deleted_at IS NULL`
	return r.getOne(ctx, query, ownerID)
}

func (r *clinicRepository) GetBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE slug = $1 AND deleted_at IS NULL`
	return r.getOne(ctx, query, slug)
}

func (r *clinicRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.Clinic, error) {
	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, phone = $2, address = $3, active = $4, time_slots = $5,
			updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`
	clinic.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		clinic.Name,
		clinic.Phone,
		clinic.Address,
		clinic.Active,
		pq.Array(clinic.TimeSlots),
		clinic.UpdatedAt,
		clinic.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update clinic: %w", err)
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

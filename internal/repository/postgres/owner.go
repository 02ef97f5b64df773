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

func (r *ownerRepository) Create(ctx context.Context, owner *model.Owner) error {
	query := `
		INSERT INTO owners (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	owner.ID = uuid.New()
	owner.CreatedAt = time.Now()
	owner.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		owner.ID,
		owner.Name,
		owner.Email,
		owner.PasswordHash,
		owner.CreatedAt,
		owner.UpdatedAt,
	)
	if err != nil {
		if uniqueViolation(err, constraintOwnerEmail) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create owner: %w", err)
	}
	return nil
}

func (r *ownerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Owner, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at, deleted_at
		FROM owners
		WHERE id = $1 AND deleted_at IS NULL
	`
	var owner model.Owner
	err := r.db.GetContext(ctx, &owner, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	return &owner, nil
}

func (r *ownerRepository) GetByEmail(ctx context.Context, email string) (*model.Owner, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at, deleted_at
		FROM owners
		WHERE email = $1 AND deleted_at IS NULL
	`
	var owner model.Owner
	err := r.db.GetContext(ctx, &owner, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get owner by email: %w", err)
	}
	return &owner, nil
}

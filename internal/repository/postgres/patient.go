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

const patientColumns = `
	id, clinic_id, name, email, phone, date_of_birth,
	created_at, updated_at, deleted_at
`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, clinic_id, name, email, phone, date_of_birth,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.ClinicID,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.DateOfBirth,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		if uniqueViolation(err, constraintPatientEmail) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE id = $1 AND clinic_id = $2 AND deleted_at IS NULL
	`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id, clinicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByEmail(ctx context.Context, clinicID uuid.UUID, email string) (*model.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE clinic_id = $1 AND email = $2 AND deleted_at IS NULL
	`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, clinicID, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient by email: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) EmailExistsElsewhere(ctx context.Context, clinicID uuid.UUID, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM patients
			WHERE email = $1 AND clinic_id != $2 AND deleted_at IS NULL
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, clinicID); err != nil {
		return false, fmt.Errorf("failed to check patient email: %w", err)
	}
	return exists, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, email = $2, phone = $3, date_of_birth = $4, updated_at = $5
		WHERE id = $6 AND clinic_id = $7 AND deleted_at IS NULL
	`
	patient.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.DateOfBirth,
		patient.UpdatedAt,
		patient.ID,
		patient.ClinicID,
	)
	if err != nil {
		if uniqueViolation(err, constraintPatientEmail) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update patient: %w", err)
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

func (r *patientRepository) List(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE clinic_id = $1 AND deleted_at IS NULL
		ORDER BY name ASC
	`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

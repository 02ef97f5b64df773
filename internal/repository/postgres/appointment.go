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

const appointmentColumns = `
	a.id, a.clinic_id, a.patient_id, a.service_id, a.date, a.time,
	a.status, a.notes, a.created_at, a.updated_at, a.deleted_at
`

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	err := r.insert(ctx, r.db, apt)
	if err != nil {
		if uniqueViolation(err, constraintAppointmentSlot) {
			return repository.ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// CreateWithPatient finds-or-creates the patient by (clinic_id, email) and
// inserts the appointment in a single transaction, so a lost race surfaces
// as ErrSlotTaken with no orphaned patient update left behind.
func (r *appointmentRepository) CreateWithPatient(ctx context.Context, apt *model.Appointment, patient *model.Patient) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO patients (
			id, clinic_id, name, email, phone, date_of_birth, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (clinic_id, email) DO UPDATE
		SET name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			date_of_birth = COALESCE(EXCLUDED.date_of_birth, patients.date_of_birth),
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	err = tx.QueryRowxContext(ctx, upsert,
		uuid.New(),
		patient.ClinicID,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.DateOfBirth,
		now,
	).Scan(&patient.ID, &patient.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert patient: %w", err)
	}
	patient.UpdatedAt = now

	apt.ID = uuid.New()
	apt.PatientID = patient.ID
	apt.CreatedAt = now
	apt.UpdatedAt = now

	if err := r.insert(ctx, tx, apt); err != nil {
		if uniqueViolation(err, constraintAppointmentSlot) {
			return repository.ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *appointmentRepository) insert(ctx context.Context, db execer, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, clinic_id, patient_id, service_id, date, time, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := db.ExecContext(ctx, query,
		apt.ID,
		apt.ClinicID,
		apt.PatientID,
		apt.ServiceID,
		apt.Date,
		apt.Time,
		apt.Status,
		apt.Notes,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	return err
}

func (r *appointmentRepository) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		WHERE a.id = $1 AND a.clinic_id = $2 AND a.deleted_at IS NULL
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id, clinicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if err := r.attachRelations(ctx, &apt); err != nil {
		return nil, err
	}
	return &apt, nil
}

func (r *appointmentRepository) attachRelations(ctx context.Context, apt *model.Appointment) error {
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, apt.PatientID)
	if err == nil {
		apt.Patient = &patient
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to load patient: %w", err)
	}

	var service model.Service
	err = r.db.GetContext(ctx, &service,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, apt.ServiceID)
	if err == nil {
		apt.Service = &service
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to load service: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET patient_id = $1, service_id = $2, date = $3, time = $4,
			status = $5, notes = $6, updated_at = $7
		WHERE id = $8 AND clinic_id = $9 AND deleted_at IS NULL
	`
	apt.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		apt.PatientID,
		apt.ServiceID,
		apt.Date,
		apt.Time,
		apt.Status,
		apt.Notes,
		apt.UpdatedAt,
		apt.ID,
		apt.ClinicID,
	)
	if err != nil {
		if uniqueViolation(err, constraintAppointmentSlot) {
			return repository.ErrSlotTaken
		}
		return fmt.Errorf("failed to update appointment: %w", err)
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

func (r *appointmentRepository) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND clinic_id = $4 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id, clinicID)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
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

func (r *appointmentRepository) List(ctx context.Context, clinicID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		WHERE a.clinic_id = $1 AND a.deleted_at IS NULL
	`
	args := []interface{}{clinicID}
	argCount := 2

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND a.status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND a.date >= $%d", argCount)
			args = append(args, filters.StartDate)
			argCount++
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND a.date <= $%d", argCount)
			args = append(args, filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY a.date ASC, a.time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) BookedTimes(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]string, error) {
	query := `
		SELECT time FROM appointments
		WHERE clinic_id = $1 AND date = $2 AND status != $3 AND deleted_at IS NULL
	`
	var times []string
	err := r.db.SelectContext(ctx, &times, query, clinicID, date, model.AppointmentStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked times: %w", err)
	}
	return times, nil
}

func (r *appointmentRepository) ExistsAt(ctx context.Context, clinicID uuid.UUID, date time.Time, slot string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE clinic_id = $1 AND date = $2 AND time = $3
			AND status != $4 AND deleted_at IS NULL
	`
	args := []interface{}{clinicID, date, slot, model.AppointmentStatusCancelled}

	if excludeID != nil {
		query += " AND id != $5"
		args = append(args, *excludeID)
	}
	query += ")"

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) ListUpcoming(ctx context.Context, date time.Time, status model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		WHERE a.date = $1 AND a.status = $2 AND a.deleted_at IS NULL
		ORDER BY a.time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, date, status); err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	for _, apt := range appointments {
		if err := r.attachRelations(ctx, apt); err != nil {
			return nil, err
		}
	}
	return appointments, nil
}

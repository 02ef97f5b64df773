package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/model"
)

// Sentinel errors translated by the service layer into typed application
// errors. Repositories never leak driver errors for these cases.
var (
	// ErrNotFound is returned when a row does not exist within the caller's
	// tenant scope.
	ErrNotFound = errors.New("not found")

	// ErrSlotTaken is returned when an insert or update violates the partial
	// unique index on (clinic_id, date, time) over non-cancelled rows.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrDuplicateEmail is returned when a unique email constraint is hit.
	ErrDuplicateEmail = errors.New("email already exists")
)

// All repository interfaces in one file
type (
	OwnerRepository interface {
		Create(ctx context.Context, owner *model.Owner) error
		Get(ctx context.Context, id uuid.UUID) (*model.Owner, error)
		GetByEmail(ctx context.Context, email string) (*model.Owner, error)
	}

	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Clinic, error)
		GetBySlug(ctx context.Context, slug string) (*model.Clinic, error)
		Update(ctx context.Context, clinic *model.Clinic) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, clinicID uuid.UUID, email string) (*model.Patient, error)
		// EmailExistsElsewhere reports whether the email is registered with a
		// clinic other than the given one. Used by the admin booking flow only.
		EmailExistsElsewhere(ctx context.Context, clinicID uuid.UUID, email string) (bool, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error)
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		SoftDelete(ctx context.Context, clinicID, id uuid.UUID) error
		List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*model.Service, error)
		// CountAll counts every service ever created for the clinic, soft
		// deleted ones included. The plan ceiling is measured against this.
		CountAll(ctx context.Context, clinicID uuid.UUID) (int, error)
	}

	AppointmentRepository interface {
		// Create inserts the appointment. Returns ErrSlotTaken if a
		// non-cancelled appointment already holds (clinic, date, time).
		Create(ctx context.Context, apt *model.Appointment) error
		// CreateWithPatient atomically finds-or-creates the patient by
		// (clinic_id, email) and inserts the appointment in one transaction.
		CreateWithPatient(ctx context.Context, apt *model.Appointment, patient *model.Patient) error
		Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, apt *model.Appointment) error
		UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status model.AppointmentStatus) error
		List(ctx context.Context, clinicID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// BookedTimes returns the times of non-cancelled appointments for the
		// clinic on the given calendar day.
		BookedTimes(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]string, error)
		// ExistsAt reports whether a non-cancelled appointment occupies the
		// slot, optionally excluding one appointment id.
		ExistsAt(ctx context.Context, clinicID uuid.UUID, date time.Time, slot string, excludeID *uuid.UUID) (bool, error)
		ListUpcoming(ctx context.Context, date time.Time, status model.AppointmentStatus) ([]*model.Appointment, error)
	}

	SubscriptionRepository interface {
		GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Subscription, error)
		Upsert(ctx context.Context, sub *model.Subscription) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		CountPending(ctx context.Context) (int64, error)
		DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)

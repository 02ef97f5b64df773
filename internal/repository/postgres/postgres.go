package postgres

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/smiledesk/admin-api/internal/repository"
)

// Postgres error codes we translate into repository sentinels.
const pqUniqueViolation = "23505"

// Names of unique constraints the application reacts to.
const (
	constraintAppointmentSlot = "appointments_clinic_date_time_active_idx"
	constraintPatientEmail    = "patients_clinic_id_email_key"
	constraintOwnerEmail      = "owners_email_key"
)

type ownerRepository struct {
	db *sqlx.DB
}

type clinicRepository struct {
	db *sqlx.DB
}

type patientRepository struct {
	db *sqlx.DB
}

type serviceRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db *sqlx.DB
}

type subscriptionRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewOwnerRepository(db *sqlx.DB) repository.OwnerRepository {
	return &ownerRepository{db: db}
}

func NewClinicRepository(db *sqlx.DB) repository.ClinicRepository {
	return &clinicRepository{db: db}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func NewServiceRepository(db *sqlx.DB) repository.ServiceRepository {
	return &serviceRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewSubscriptionRepository(db *sqlx.DB) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

// uniqueViolation reports whether err is a unique violation on the named
// constraint. An empty name matches any unique violation.
func uniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	if pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

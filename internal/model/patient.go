package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient belongs to exactly one clinic and is unique by (clinic, email).
// Public bookings find-or-create the patient; cross-clinic email reuse is
// allowed on that path and rejected on the admin path.
type Patient struct {
	Base
	ClinicID    uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Name        string     `db:"name" json:"name"`
	Email       string     `db:"email" json:"email"`
	Phone       string     `db:"phone" json:"phone,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
}

type PatientInfo struct {
	Name        string     `json:"name" binding:"required"`
	Email       string     `json:"email" binding:"required,email"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

type UpdatePatientRequest struct {
	Name        *string    `json:"name"`
	Email       *string    `json:"email" binding:"omitempty,email"`
	Phone       *string    `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is one of the four known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition out of s is defined.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// Appointment occupies one clinic slot on one calendar day. Among
// non-cancelled appointments, (clinic_id, date, time) is unique; a cancelled
// appointment vacates its slot.
type Appointment struct {
	Base
	ClinicID  uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	ServiceID uuid.UUID         `db:"service_id" json:"service_id"`
	Date      time.Time         `db:"date" json:"date"`
	Time      string            `db:"time" json:"time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Notes     string            `db:"notes" json:"notes,omitempty"`

	// Populated on reads that join related rows.
	Patient *Patient `db:"-" json:"patient,omitempty"`
	Service *Service `db:"-" json:"service,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID   *uuid.UUID   `json:"patient_id"`
	PatientInfo *PatientInfo `json:"patient"`
	ServiceID   uuid.UUID    `json:"service_id" binding:"required"`
	Date        string       `json:"date" binding:"required"`
	Time        string       `json:"time" binding:"required,timeslot"`
	Notes       string       `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	ServiceID *uuid.UUID `json:"service_id"`
	PatientID *uuid.UUID `json:"patient_id"`
	Date      *string    `json:"date"`
	Time      *string    `json:"time" binding:"omitempty,timeslot"`
	Notes     *string    `json:"notes" binding:"omitempty,max=1000"`
}

type AppointmentFilters struct {
	Status    AppointmentStatus
	PatientID uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

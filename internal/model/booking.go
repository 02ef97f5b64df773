package model

import "github.com/google/uuid"

// CreateBookingRequest is the public self-service booking payload. The
// patient block is caller-supplied and re-validated server side; the booking
// always lands in pending status.
type CreateBookingRequest struct {
	Patient   PatientInfo `json:"patient" binding:"required"`
	ServiceID uuid.UUID   `json:"service_id" binding:"required"`
	Date      string      `json:"date" binding:"required"`
	Time      string      `json:"time" binding:"required,timeslot"`
	Notes     string      `json:"notes" binding:"max=1000"`
}

package model

import (
	"github.com/google/uuid"
)

// Service is a bookable treatment offered by a clinic. PriceCents is the
// price in minor currency units. DurationMin is informational only and does
// not block adjacent slots.
type Service struct {
	Base
	ClinicID    uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	PriceCents  int64     `db:"price_cents" json:"price_cents"`
	DurationMin int       `db:"duration_min" json:"duration_min"`
	Active      bool      `db:"active" json:"active"`
}

type CreateServiceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"required,gt=0"`
	DurationMin int    `json:"duration_min" binding:"required,gt=0"`
}

type UpdateServiceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents" binding:"omitempty,gt=0"`
	DurationMin *int    `json:"duration_min" binding:"omitempty,gt=0"`
	Active      *bool   `json:"active"`
}

package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Clinic is the tenant. TimeSlots holds the clinic-wide bookable start times
// as zero-padded "HH:MM" strings; every slot applies every day.
type Clinic struct {
	Base
	OwnerID   uuid.UUID      `db:"owner_id" json:"owner_id"`
	Name      string         `db:"name" json:"name"`
	Slug      string         `db:"slug" json:"slug"`
	Phone     string         `db:"phone" json:"phone,omitempty"`
	Address   string         `db:"address" json:"address,omitempty"`
	Active    bool           `db:"active" json:"active"`
	TimeSlots pq.StringArray `db:"time_slots" json:"time_slots"`
}

type UpdateClinicRequest struct {
	Name      *string  `json:"name"`
	Phone     *string  `json:"phone"`
	Address   *string  `json:"address"`
	Active    *bool    `json:"active"`
	TimeSlots []string `json:"time_slots" binding:"omitempty,dive,timeslot"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

type Plan string

const (
	PlanBasic        Plan = "basic"
	PlanProfessional Plan = "professional"

	// Synthetic plan identifiers reported by the access service for owners
	// without a subscription.
	PlanTrial   Plan = "trial"
	PlanExpired Plan = "expired"
)

// Subscription mirrors the billing provider's state for one owner. Rows are
// written only by the billing webhook; the scheduling core just reads
// status and plan.
type Subscription struct {
	Base
	OwnerID            uuid.UUID          `db:"owner_id" json:"owner_id"`
	Status             SubscriptionStatus `db:"status" json:"status"`
	Plan               Plan               `db:"plan" json:"plan"`
	ProviderCustomerID string             `db:"provider_customer_id" json:"provider_customer_id,omitempty"`
	ProviderSubID      string             `db:"provider_sub_id" json:"provider_sub_id,omitempty"`
	CurrentPeriodEnd   *time.Time         `db:"current_period_end" json:"current_period_end,omitempty"`
}

// BillingEvent is the payload delivered by the billing provider webhook.
type BillingEvent struct {
	Type               string     `json:"type" binding:"required,oneof=subscription.created subscription.updated subscription.canceled"`
	OwnerID            uuid.UUID  `json:"owner_id" binding:"required"`
	Status             string     `json:"status" binding:"required"`
	Plan               string     `json:"plan" binding:"required,oneof=basic professional"`
	ProviderCustomerID string     `json:"provider_customer_id"`
	ProviderSubID      string     `json:"provider_sub_id"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Owner is the authenticated account behind a clinic. The signup timestamp
// anchors the trial window computed by the access service.
type Owner struct {
	Base
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
}

type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	ClinicName string `json:"clinic_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenClaims is the decoded owner identity carried by a session token.
type TokenClaims struct {
	OwnerID  uuid.UUID `json:"owner_id"`
	ClinicID uuid.UUID `json:"clinic_id"`
	Email    string    `json:"email"`
}

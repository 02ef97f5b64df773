package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	ownerID := uuid.New()
	clinicID := uuid.New()

	token, expiresAt, err := svc.GenerateToken(ownerID, clinicID, "owner@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, ownerID.String(), claims.OwnerID)
	assert.Equal(t, clinicID.String(), claims.ClinicID)
	assert.Equal(t, "owner@example.com", claims.Email)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("secret-a", time.Hour).GenerateToken(uuid.New(), uuid.New(), "a@b.c")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)
	token, _, err := svc.GenerateToken(uuid.New(), uuid.New(), "a@b.c")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/handler"
	"github.com/smiledesk/admin-api/pkg/auth"
)

const (
	ContextOwnerID  = "owner_id"
	ContextClinicID = "clinic_id"
)

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwtSvc auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc}
}

// Authenticate validates the bearer token and puts the owner and clinic ids
// in the request context. Every authed route reads its tenant from here,
// never from the request payload.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		ownerID, err := uuid.Parse(claims.OwnerID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}
		clinicID, err := uuid.Parse(claims.ClinicID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextOwnerID, ownerID)
		c.Set(ContextClinicID, clinicID)
		c.Next()
	}
}

// OwnerID returns the authenticated owner id from the context.
func OwnerID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet(ContextOwnerID).(uuid.UUID)
	return id
}

// ClinicID returns the authenticated owner's clinic id from the context.
func ClinicID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet(ContextClinicID).(uuid.UUID)
	return id
}

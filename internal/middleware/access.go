package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smiledesk/admin-api/internal/handler"
	"github.com/smiledesk/admin-api/internal/service/access"
)

type AccessMiddleware struct {
	access *access.Service
}

func NewAccessMiddleware(accessSvc *access.Service) *AccessMiddleware {
	return &AccessMiddleware{access: accessSvc}
}

// RequireAccess blocks scheduling routes for owners whose trial has lapsed
// and who hold no active subscription. It runs after Authenticate.
func (m *AccessMiddleware) RequireAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := m.access.SchedulingAccess(c.Request.Context(), OwnerID(c))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		if !status.HasAccess {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse(
				"your trial has ended, subscribe to keep using scheduling"))
			c.Abort()
			return
		}

		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/smiledesk/admin-api/internal/handler"
	"github.com/smiledesk/admin-api/pkg/apperror"
	"github.com/smiledesk/admin-api/pkg/logger"
)

// ErrorHandler converts errors attached to the gin context into the JSON
// error envelope. Typed application errors keep their status and message;
// anything else becomes an opaque 500 with the cause logged.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		status := appErr.StatusCode()

		if status >= 500 {
			log.Error(appErr.Err, "request failed",
				"request_id", c.GetString(ContextRequestID),
				"path", c.Request.URL.Path,
			)
		}

		c.JSON(status, handler.NewErrorResponse(appErr.Message))
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smiledesk/admin-api/pkg/logger"
)

// Logger logs one line per request. 5xx logs as error, 4xx as warn.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		evt := log.Zerolog().Info()
		switch {
		case status >= 500:
			evt = log.Zerolog().Error()
		case status >= 400:
			evt = log.Zerolog().Warn()
		}

		evt.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

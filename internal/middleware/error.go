package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetbook-api/internal/handler"
	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
)

// ErrorHandler renders the last error attached to the context. 5xx causes
// are logged and never sent to the client.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		lastErr := c.Errors.Last().Err
		status := apperrors.HTTPStatus(lastErr)

		event := log.ZL.Warn()
		if status >= 500 {
			event = log.ZL.Error()
		}
		event.Err(lastErr).
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg("Request error")

		if c.Writer.Written() {
			return
		}
		c.JSON(status, handler.NewErrorResponse(apperrors.Message(lastErr)))
	}
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "invtrack/internal/errors"
	"invtrack/internal/logger"
)

// ErrorDetail is the body of an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON shape of every error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorHandler returns a Gin middleware that turns the last error recorded on
// the context into a JSON error response, unless a handler already wrote one.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

// WriteError writes err as a JSON error response. An *AppError keeps its
// status, code and message; anything else becomes INTERNAL_ERROR so details
// do not leak. Server-side failures are logged with the request ID.
func WriteError(c *gin.Context, err error) {
	appErr := apperrors.ErrInternalServer
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		fields := []interface{}{
			"request_id", c.GetString(requestIDKey),
			"code", appErr.Code,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		}
		if appErr.Internal != nil {
			fields = append(fields, "error", appErr.Internal.Error())
		}
		logger.Named("http").Errorw("request failed", fields...)
	}

	c.AbortWithStatusJSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{
		Code:    appErr.Code,
		Message: appErr.Message,
	}})
}

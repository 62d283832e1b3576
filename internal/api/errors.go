package api

import (
	"context"
	"errors"
	"net/http"

	"adminconsole/client"
	"adminconsole/internal/service"
	"adminconsole/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps a service or backend failure onto the console response.
func writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("trace_id", c.GetString("TraceID")),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) (int, string) {
	var apiErr *client.Error
	switch {
	case errors.Is(err, service.ErrReadOnly):
		return http.StatusMethodNotAllowed, err.Error()
	case errors.Is(err, service.ErrInvalidBody), errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrInvalidThreshold):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request cancelled"
	case errors.Is(err, client.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, client.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, client.ErrNetwork):
		return http.StatusBadGateway, "backend unreachable"
	case errors.Is(err, client.ErrLoginResponseInvalid):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &apiErr) && apiErr.Status >= 400:
		msg := apiErr.Message()
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		return apiErr.Status, msg
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

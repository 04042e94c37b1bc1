package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/storefront-auth/internal/dto"
	"github.com/prperemyshlev/storefront-auth/internal/service"
	"go.uber.org/zap"
)

// respondError writes the HTTP form of a service error. Unknown errors are
// logged and reported as a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, title := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, service.ErrBadRequest):
		status, title = http.StatusBadRequest, "Bad request"
	case errors.Is(err, service.ErrNotFound):
		status, title = http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrUnauthorized):
		status, title = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, service.ErrNotificationFailed):
		status, title = http.StatusBadGateway, "Notification failed"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		message = "Something went wrong"
	} else {
		// drop the sentinel prefix, e.g. "unauthorized: wrong verification code"
		if _, rest, ok := strings.Cut(message, ": "); ok {
			message = rest
		}
	}

	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Error:   title,
		Message: message,
	})
}

func validationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "Validation failed",
		Message: err.Error(),
	})
}

// requireHeader reads a token header or responds 401 when it is missing
func requireHeader(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.GetHeader(name))
	if value == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: name + " header is required",
		})
		return "", false
	}
	return value, true
}

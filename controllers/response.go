package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kd-resto/apperrors"
	"kd-resto/logger"
)

// respondError maps a service error onto the JSON failure envelope. Internal
// and transient failures are logged in full and reported generically.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString(logger.RequestIDKey),
			"error", err)
		c.JSON(status, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	body := gin.H{"success": false, "error": err.Error()}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body["error"] = appErr.Message
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
	}
	c.JSON(status, body)
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}

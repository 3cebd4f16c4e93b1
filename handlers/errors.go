package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"bestai/archive"
	"bestai/sentryhelper"
)

// statusFor maps an archive error kind to an HTTP status.
func statusFor(err error) int {
	if archive.KindOf(err) == archive.KindInvalidQuery {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes {error, details} for err. Server-side failures are
// logged and reported to Sentry; caller errors are not.
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusBadRequest {
		var ae *archive.Error
		if errors.As(err, &ae) && ae.Err != nil {
			message = ae.Err.Error()
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	log.WithFields(log.Fields{
		"path": c.Request.URL.Path,
		"kind": archive.KindOf(err).String(),
	}).WithError(err).Error(message)
	sentryhelper.CaptureException(c.Request.Context(), err)

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

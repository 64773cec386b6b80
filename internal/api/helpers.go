// Package api implements the HTTP API for the site auditor.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/audit"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// parseLimitOffset parses limit and offset query params with defaults.
func parseLimitOffset(c *gin.Context, defaultLimit, defaultOffset int) (limit, offset int) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultLimit))
	offsetStr := c.DefaultQuery("offset", strconv.Itoa(defaultOffset))
	limit, _ = strconv.Atoi(limitStr)
	offset, _ = strconv.Atoi(offsetStr)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = defaultOffset
	}
	return limit, offset
}

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondBadRequest sends a 400 with message.
func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, audit.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, audit.ErrInvalidTransition),
		errors.Is(err, audit.ErrRetriesExhausted),
		errors.Is(err, audit.ErrDuplicateRun):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with the status statusFor picks. Internal
// errors are not echoed to the client.
func respondServiceError(c *gin.Context, err error, fallback string) int {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		respondError(c, status, fallback)
		return status
	}
	respondError(c, status, err.Error())
	return status
}

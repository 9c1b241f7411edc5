// Package respond writes handler errors. Every handler reports failures through Error so
// the status mapping and the audit annotation stay uniform.
package respond

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/audit"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/middleware"
)

// Error maps err to its status and a client-safe message, and notes the message on the
// request's audit event
func Error(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	msg := apperrors.PublicMessage(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(),
			"request_id", c.GetString(middleware.RequestIDKey),
			"error", err)
	}
	middleware.AnnotateAudit(c, func(e *audit.Event) { e.EventDetails = msg })
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// BadRequest reports a malformed request body
func BadRequest(c *gin.Context, err error) {
	Error(c, apperrors.Validation("body", err.Error()))
}

// Caller returns the authenticated user, or writes 401 and returns false
func Caller(c *gin.Context) (user *models.User, ok bool) {
	user = middleware.CurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	return user, true
}

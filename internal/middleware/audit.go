// audit.go records every tagged API call to the application audit log. These records
// are what case, file, user and system audits later query.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/audit"
)

const auditDraftKey = "audit_event"

// auditShipTimeout bounds how long a request waits on the audit sink
const auditShipTimeout = 5 * time.Second

// AuditRecorder is the sink audit events go to
type AuditRecorder interface {
	Record(ctx context.Context, e *audit.Event) error
}

// AuditMiddleware records one audit event per request whose route was tagged with
// AuditEvent. The event is recorded after the handler runs so it carries the final
// status. Recording is synchronous because a Lambda may be frozen as soon as the
// response is returned.
func AuditMiddleware(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		draft := &audit.Event{}
		c.Set(auditDraftKey, draft)

		c.Next()

		if c.Request.Method == http.MethodOptions || draft.EventType == "" {
			return
		}
		completeEvent(c, draft)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), auditShipTimeout)
		defer cancel()
		// Recorder logs its own failures.
		_ = recorder.Record(ctx, draft)
	}
}

// AuditEvent tags a route with the event type it records
func AuditEvent(eventType audit.EventType) gin.HandlerFunc {
	return func(c *gin.Context) {
		AnnotateAudit(c, func(e *audit.Event) { e.EventType = eventType })
		c.Next()
	}
}

// AnnotateAudit lets a handler add what only it knows, such as the id of a case it
// just created or why a request failed
func AnnotateAudit(c *gin.Context, fn func(e *audit.Event)) {
	v, ok := c.Get(auditDraftKey)
	if !ok {
		return
	}
	if e, ok := v.(*audit.Event); ok {
		fn(e)
	}
}

// completeEvent fills the fields every event carries from the request context
func completeEvent(c *gin.Context, e *audit.Event) {
	if user := CurrentUser(c); user != nil {
		e.UserULID = user.ULID
		e.Username = user.Username
	} else if id := CurrentIdentity(c); id != nil {
		e.Username = id.Username
	}
	if e.CaseID == "" {
		e.CaseID = c.Param("caseId")
	}
	if e.FileID == "" {
		e.FileID = c.Param("fileId")
	}
	if e.TargetUserID == "" {
		e.TargetUserID = c.Param("userId")
	}

	e.HTTPStatus = c.Writer.Status()
	if e.Result == "" {
		e.Result = audit.ResultSuccess
		if e.HTTPStatus >= http.StatusBadRequest {
			e.Result = audit.ResultFailure
		}
	}
	e.RequestID = c.GetString(RequestIDKey)
	e.RequestPath = c.Request.URL.Path
	e.SourceIP = c.ClientIP()
}

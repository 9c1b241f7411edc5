// Package audits implements the audit endpoints. Each audit kind exposes the same pair:
// a POST that starts a query and a GET that polls it and returns the CSV once the
// query completes.
//
// These routes carry no scope middleware. The Guard makes the scope decision so that a
// caller without the scope sees the same 404 as a caller asking about a case that does
// not exist.
package audits

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/api/respond"
	"github.com/digital-evidence-archive/dea-backend/internal/audit"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/middleware"
)

// Starter starts and polls audit queries
type Starter interface {
	StartAudit(ctx context.Context, scope audit.Scope) (*models.AuditJob, error)
	GetResults(ctx context.Context, job *models.AuditJob) (*audit.Result, error)
}

// Authorizer decides whether a caller may touch an audit
type Authorizer interface {
	CheckScope(ctx context.Context, scope audit.Scope, caller audit.Caller) error
	Authorize(ctx context.Context, auditID string, scope audit.Scope, caller audit.Caller) (*models.AuditJob, error)
}

// ScopeFunc derives an audit scope from the request path
type ScopeFunc func(c *gin.Context) audit.Scope

// Path-derived scopes for the four audit kinds
var (
	CaseScope     ScopeFunc = func(c *gin.Context) audit.Scope { return audit.CaseScope(c.Param("caseId")) }
	CaseFileScope ScopeFunc = func(c *gin.Context) audit.Scope {
		return audit.CaseFileScope(c.Param("caseId"), c.Param("fileId"))
	}
	UserScope   ScopeFunc = func(c *gin.Context) audit.Scope { return audit.UserScope(c.Param("userId")) }
	SystemScope ScopeFunc = func(*gin.Context) audit.Scope { return audit.SystemScope() }
)

// Handlers serves the audit endpoints
type Handlers struct {
	service Starter
	guard   Authorizer
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service Starter, guard Authorizer) *Handlers {
	return &Handlers{service: service, guard: guard}
}

func caller(c *gin.Context) (audit.Caller, bool) {
	user, ok := respond.Caller(c)
	if !ok {
		return audit.Caller{}, false
	}
	return audit.Caller{UserULID: user.ULID, Scopes: middleware.CurrentScopes(c)}, true
}

// @Summary      Start audit
// @Description  Start an audit query for a case, case file, user or the whole system
// @Tags         Audit
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "auditId"
// @Failure      404  {object}  map[string]interface{}  "Not found"
// @Router       /cases/{caseId}/audit [post]
// StartHandler starts an audit of the scope named by the path
func (h *Handlers) StartHandler(scopeOf ScopeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		scope := scopeOf(c)
		ctx := c.Request.Context()

		if err := h.guard.CheckScope(ctx, scope, who); err != nil {
			respond.Error(c, err)
			return
		}
		job, err := h.service.StartAudit(ctx, scope)
		if err != nil {
			respond.Error(c, err)
			return
		}
		middleware.AnnotateAudit(c, func(e *audit.Event) { e.EventDetails = "auditId=" + job.ULID })
		c.JSON(http.StatusOK, gin.H{"auditId": job.ULID})
	}
}

// @Summary      Get audit results
// @Description  Poll an audit. Returns {"status"} while the query runs and the CSV export once it completes.
// @Tags         Audit
// @Security     Bearer
// @Produce      json
// @Produce      text/csv
// @Param        auditId  path  string  true  "Audit ID"
// @Success      200  {object}  map[string]interface{}  "status while running, CSV when complete"
// @Failure      404  {object}  map[string]interface{}  "Not found"
// @Failure      500  {object}  map[string]interface{}  "Query failed"
// @Router       /cases/{caseId}/audit/{auditId}/csv [get]
// ResultsHandler polls an audit. While the query runs the body is {"status": ...};
// once it completes the body is the CSV export.
func (h *Handlers) ResultsHandler(scopeOf ScopeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		auditID := c.Param("auditId")

		job, err := h.guard.Authorize(ctx, auditID, scopeOf(c), who)
		if err != nil {
			respond.Error(c, err)
			return
		}
		res, err := h.service.GetResults(ctx, job)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if res.Status != audit.StatusComplete {
			c.JSON(http.StatusOK, gin.H{"status": res.Status})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", auditID+".csv"))
		c.Header("X-Audit-Rows", strconv.Itoa(res.Rows))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", res.CSV)
	}
}

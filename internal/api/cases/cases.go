// Package cases implements the case and case membership endpoints.
package cases

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/api/respond"
	"github.com/digital-evidence-archive/dea-backend/internal/audit"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/middleware"
	"github.com/digital-evidence-archive/dea-backend/internal/services"
)

// CaseService is what the handlers need from services.CaseService
type CaseService interface {
	Create(ctx context.Context, caller *models.User, in services.CaseInput) (*models.Case, error)
	Get(ctx context.Context, caller *models.User, caseULID string) (*models.Case, error)
	Update(ctx context.Context, caller *models.User, caseULID string, in services.CaseInput) (*models.Case, error)
	MyCases(ctx context.Context, caller *models.User) ([]*models.Case, error)
	Members(ctx context.Context, caller *models.User, caseULID string) ([]*models.CaseUser, error)
	Invite(ctx context.Context, caller *models.User, caseULID, userULID string, actions []models.CaseAction) (*models.CaseUser, error)
	RemoveMember(ctx context.Context, caller *models.User, caseULID, userULID string) error
}

// Handlers serves the case endpoints
type Handlers struct {
	cases CaseService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(cases CaseService) *Handlers {
	return &Handlers{cases: cases}
}

// @Summary      Create case
// @Description  Create a case. The caller becomes its owner with every case action.
// @Tags         Cases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Case
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Router       /cases [post]
// CreateHandler creates a case
// POST /cases
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		var in services.CaseInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respond.BadRequest(c, err)
			return
		}
		created, err := h.cases.Create(c.Request.Context(), caller, in)
		if err != nil {
			respond.Error(c, err)
			return
		}
		middleware.AnnotateAudit(c, func(e *audit.Event) { e.CaseID = created.ULID })
		c.JSON(http.StatusOK, created)
	}
}

// MyCasesHandler lists the caller's cases
// GET /cases/my-cases
func (h *Handlers) MyCasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		list, err := h.cases.MyCases(c.Request.Context(), caller)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cases": list, "total": len(list)})
	}
}

// GetDetailsHandler returns one case
// GET /cases/:caseId/details
func (h *Handlers) GetDetailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		found, err := h.cases.Get(c.Request.Context(), caller, c.Param("caseId"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, found)
	}
}

// UpdateDetailsHandler replaces a case's name, description and status
// PUT /cases/:caseId/details
func (h *Handlers) UpdateDetailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		var in services.CaseInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respond.BadRequest(c, err)
			return
		}
		updated, err := h.cases.Update(c.Request.Context(), caller, c.Param("caseId"), in)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// ListMembersHandler lists a case's memberships
// GET /cases/:caseId/user-memberships
func (h *Handlers) ListMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		members, err := h.cases.Members(c.Request.Context(), caller, c.Param("caseId"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"caseUsers": members, "total": len(members)})
	}
}

type inviteRequest struct {
	UserULID string              `json:"userUlid" binding:"required"`
	Actions  []models.CaseAction `json:"actions" binding:"required"`
}

// InviteHandler adds a member to a case
// POST /cases/:caseId/user-memberships
func (h *Handlers) InviteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		var req inviteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		middleware.AnnotateAudit(c, func(e *audit.Event) { e.TargetUserID = req.UserULID })
		membership, err := h.cases.Invite(c.Request.Context(), caller, c.Param("caseId"), req.UserULID, req.Actions)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, membership)
	}
}

// RemoveMemberHandler revokes a membership
// DELETE /cases/:caseId/users/:userId/memberships
func (h *Handlers) RemoveMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := respond.Caller(c)
		if !ok {
			return
		}
		if err := h.cases.RemoveMember(c.Request.Context(), caller, c.Param("caseId"), c.Param("userId")); err != nil {
			respond.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

package audit

import (
	"context"
	"fmt"

	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/auth"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

// MembershipReader answers whether a user currently belongs to a case
type MembershipReader interface {
	Get(ctx context.Context, caseULID, userULID string) (*models.CaseUser, error)
}

// FileReader looks up a case file
type FileReader interface {
	Get(ctx context.Context, caseULID, fileULID string) (*models.CaseFile, error)
}

// UserReader looks up a user
type UserReader interface {
	GetByID(ctx context.Context, userULID string) (*models.User, error)
}

// Caller is the authenticated identity making an audit request
type Caller struct {
	UserULID string
	Scopes   []string
}

// Guard decides whether a caller may start or read an audit. Every denial is a
// NotFoundError so callers cannot probe which cases, files, users or audits exist.
type Guard struct {
	jobs    JobStore
	members MembershipReader
	files   FileReader
	users   UserReader
}

// NewGuard creates a Guard
func NewGuard(jobs JobStore, members MembershipReader, files FileReader, users UserReader) *Guard {
	return &Guard{jobs: jobs, members: members, files: files, users: users}
}

// CheckScope verifies the scope's resource exists and the caller may audit it.
// Membership is read on every call, never cached.
func (g *Guard) CheckScope(ctx context.Context, scope Scope, caller Caller) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	switch scope.Type {
	case models.AuditTypeCase:
		return g.checkCaseAudit(ctx, scope.ResourceID, caller, "case")
	case models.AuditTypeCaseFile:
		if err := g.checkCaseAudit(ctx, scope.ParentResourceID, caller, "case file"); err != nil {
			return err
		}
		file, err := g.files.Get(ctx, scope.ParentResourceID, scope.ResourceID)
		if err != nil {
			return &apperrors.InternalError{Err: fmt.Errorf("failed to load case file: %w", err)}
		}
		if file == nil {
			return apperrors.NotFound("case file")
		}
		return nil
	case models.AuditTypeUser:
		if !auth.HasScope(caller.Scopes, auth.ScopeAuditUser) {
			return apperrors.NotFound("user")
		}
		user, err := g.users.GetByID(ctx, scope.ResourceID)
		if err != nil {
			return &apperrors.InternalError{Err: fmt.Errorf("failed to load user: %w", err)}
		}
		if user == nil {
			return apperrors.NotFound("user")
		}
		return nil
	case models.AuditTypeSystem:
		if !auth.HasScope(caller.Scopes, auth.ScopeAuditSystem) {
			return apperrors.NotFound("audit")
		}
		return nil
	}
	return apperrors.NotFound("audit")
}

func (g *Guard) checkCaseAudit(ctx context.Context, caseULID string, caller Caller, resource string) error {
	if !auth.HasScope(caller.Scopes, auth.ScopeAuditCase) {
		return apperrors.NotFound(resource)
	}
	membership, err := g.members.Get(ctx, caseULID, caller.UserULID)
	if err != nil {
		return &apperrors.InternalError{Err: fmt.Errorf("failed to load case membership: %w", err)}
	}
	if !membership.Can(models.CaseActionCaseAudit) {
		return apperrors.NotFound(resource)
	}
	return nil
}

// Authorize loads audit auditID for a results request made under scope. The job must
// have been started for exactly that scope, and the caller must still be entitled to
// it now.
func (g *Guard) Authorize(ctx context.Context, auditID string, scope Scope, caller Caller) (*models.AuditJob, error) {
	if !models.IsULID(auditID) {
		return nil, apperrors.Validation("auditId", "must be a ULID")
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	job, err := g.jobs.GetByID(ctx, auditID)
	if err != nil {
		return nil, &apperrors.InternalError{Err: fmt.Errorf("failed to load audit job: %w", err)}
	}
	if job == nil || !scope.Matches(job) {
		return nil, apperrors.NotFound("audit")
	}

	if err := g.CheckScope(ctx, scope, caller); err != nil {
		return nil, err
	}
	return job, nil
}

package audit

import (
	"github.com/digital-evidence-archive/dea-backend/internal/apperrors"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

// Scope names the resource an audit covers, as given by the request path
type Scope struct {
	Type             models.AuditType
	ResourceID       string
	ParentResourceID string // owning case of a CASE_FILE scope
}

// CaseScope covers one case
func CaseScope(caseID string) Scope {
	return Scope{Type: models.AuditTypeCase, ResourceID: caseID}
}

// CaseFileScope covers one file of a case
func CaseFileScope(caseID, fileID string) Scope {
	return Scope{Type: models.AuditTypeCaseFile, ResourceID: fileID, ParentResourceID: caseID}
}

// UserScope covers everything one user did or had done to them
func UserScope(userID string) Scope {
	return Scope{Type: models.AuditTypeUser, ResourceID: userID}
}

// SystemScope covers every event
func SystemScope() Scope {
	return Scope{Type: models.AuditTypeSystem, ResourceID: models.SystemResourceID}
}

// Validate checks the scope's ids are well formed
func (s Scope) Validate() error {
	if !s.Type.Valid() {
		return apperrors.Validation("auditType", "unknown audit type "+string(s.Type))
	}
	switch s.Type {
	case models.AuditTypeCase:
		if !models.IsULID(s.ResourceID) {
			return apperrors.Validation("caseId", "must be a ULID")
		}
	case models.AuditTypeCaseFile:
		if !models.IsULID(s.ParentResourceID) {
			return apperrors.Validation("caseId", "must be a ULID")
		}
		if !models.IsULID(s.ResourceID) {
			return apperrors.Validation("fileId", "must be a ULID")
		}
	case models.AuditTypeUser:
		if !models.IsULID(s.ResourceID) {
			return apperrors.Validation("userId", "must be a ULID")
		}
	case models.AuditTypeSystem:
		if s.ResourceID != models.SystemResourceID {
			return apperrors.Validation("resourceId", "system audits have no resource id")
		}
	}
	return nil
}

// Matches reports whether job was started for exactly this scope
func (s Scope) Matches(job *models.AuditJob) bool {
	return job.AuditType == s.Type &&
		job.ResourceID == s.ResourceID &&
		job.ParentResourceID == s.ParentResourceID
}

// Package models - audit_job.go defines the AuditJob model tracking a started audit
// query. Jobs are written once when the query starts and never updated.
package models

import "time"

// AuditType is the kind of resource an audit covers
type AuditType string

const (
	AuditTypeCase     AuditType = "CASE"
	AuditTypeCaseFile AuditType = "CASE_FILE"
	AuditTypeUser     AuditType = "USER"
	AuditTypeSystem   AuditType = "SYSTEM"
)

// Valid reports whether t is a known audit type
func (t AuditType) Valid() bool {
	switch t {
	case AuditTypeCase, AuditTypeCaseFile, AuditTypeUser, AuditTypeSystem:
		return true
	}
	return false
}

// SystemResourceID is the resource id recorded on system-wide audit jobs
const SystemResourceID = "SYSTEM"

// AuditJob records one started audit query
type AuditJob struct {
	ULID             string    `json:"auditId"`
	QueryID          string    `json:"-"` // log backend handle; never exposed
	AuditType        AuditType `json:"auditType"`
	ResourceID       string    `json:"resourceId"`
	ParentResourceID string    `json:"parentResourceId,omitempty"` // owning case for CASE_FILE audits
	CreatedAt        time.Time `json:"created"`
}

// Package models - case.go defines the Case model, the unit of tenancy that evidence
// files, memberships and case audits hang off.
package models

import "time"

// CaseStatus is the lifecycle state of a case
type CaseStatus string

const (
	CaseStatusActive   CaseStatus = "ACTIVE"
	CaseStatusInactive CaseStatus = "INACTIVE"
)

// Valid reports whether s is a known case status
func (s CaseStatus) Valid() bool {
	return s == CaseStatusActive || s == CaseStatusInactive
}

// Case represents an investigation case
type Case struct {
	ULID        string     `json:"ulid"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      CaseStatus `json:"status"`
	ObjectCount int        `json:"objectCount"`
	CreatedAt   time.Time  `json:"created"`
	UpdatedAt   time.Time  `json:"updated"`
}

// Package models - case_user.go defines case membership: which user may perform which
// actions on which case. Memberships are read on every request that touches a case, so
// revoking one takes effect immediately.
package models

import "time"

// CaseAction is a permission a member holds on a single case
type CaseAction string

const (
	CaseActionViewCaseDetails   CaseAction = "VIEW_CASE_DETAILS"
	CaseActionUpdateCaseDetails CaseAction = "UPDATE_CASE_DETAILS"
	CaseActionInvite            CaseAction = "INVITE"
	CaseActionViewFiles         CaseAction = "VIEW_FILES"
	CaseActionUpload            CaseAction = "UPLOAD"
	CaseActionDownload          CaseAction = "DOWNLOAD"
	CaseActionCaseAudit         CaseAction = "CASE_AUDIT"
)

// AllCaseActions returns every case action; case creators receive all of them
func AllCaseActions() []CaseAction {
	return []CaseAction{
		CaseActionViewCaseDetails,
		CaseActionUpdateCaseDetails,
		CaseActionInvite,
		CaseActionViewFiles,
		CaseActionUpload,
		CaseActionDownload,
		CaseActionCaseAudit,
	}
}

// ValidCaseAction reports whether a is a known case action
func ValidCaseAction(a CaseAction) bool {
	for _, known := range AllCaseActions() {
		if a == known {
			return true
		}
	}
	return false
}

// CaseUser represents a user's membership in a case
type CaseUser struct {
	CaseULID      string       `json:"caseUlid"`
	UserULID      string       `json:"userUlid"`
	Actions       []CaseAction `json:"actions"`
	CaseName      string       `json:"caseName"`
	UserFirstName string       `json:"userFirstName"`
	UserLastName  string       `json:"userLastName"`
	CreatedAt     time.Time    `json:"created"`
	UpdatedAt     time.Time    `json:"updated"`
}

// Can reports whether the membership grants action
func (cu *CaseUser) Can(action CaseAction) bool {
	if cu == nil {
		return false
	}
	for _, a := range cu.Actions {
		if a == action {
			return true
		}
	}
	return false
}
